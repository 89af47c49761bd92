package common

// AuthorizationHeaderName carries the bearer session token on HTTP requests.
const AuthorizationHeaderName = "Authorization"

// BearerPrefix precedes the token in the Authorization header.
const BearerPrefix = "Bearer "

// NDJSONContentType is the media type of the submission export stream.
const NDJSONContentType = "application/x-ndjson"
