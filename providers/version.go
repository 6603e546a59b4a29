package providers

// Version is the library version reported to provider APIs in the
// User-Agent header.
const Version = "1.1.0"
