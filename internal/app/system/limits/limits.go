// internal/app/system/limits/limits.go
package limits

// Size limits for request bodies and files read whole into memory.
const (
	// MaxJSONBody is the maximum size of an application API request body.
	MaxJSONBody = 1 << 20 // 1 MB

	// MaxSeedFile is the maximum size of a catalog seed file.
	MaxSeedFile = 4 << 20 // 4 MB
)
