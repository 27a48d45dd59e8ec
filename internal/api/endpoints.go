package api

// HTTP routes
const (
	GraphQLPath = "/api/graphql"
	HealthPath  = "/health"
)

// PublicEndpoints lists routes served without looking at the Authorization
// header. Everything else passes through token verification.
var PublicEndpoints = map[string]bool{
	HealthPath: true,
}

// IsProtected reports whether requests to path have their token verified.
func IsProtected(path string) bool {
	isPublic, exists := PublicEndpoints[path]
	return !exists || !isPublic
}
