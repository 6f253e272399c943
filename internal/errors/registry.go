package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
	DocURL   string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Runtime Errors (E001-E019)
	// ============================================

	"E001": {
		Category: CategoryRuntime,
		Message:  "Circular dependency detected",
		Detail:   "A derived value or effect re-entered its own computation. Check your signal and memo dependencies.",
		DocURL:   "https://glintui.dev/docs/errors/E001",
	},
	"E002": {
		Category: CategoryRuntime,
		Message:  "Effect panicked",
		Detail:   "An effect body or cleanup panicked. The panic was recovered and the effect stays armed.",
		DocURL:   "https://glintui.dev/docs/errors/E002",
	},
	"E003": {
		Category: CategoryRuntime,
		Message:  "Derived value errored",
		Detail:   "A derived value's compute function panicked. Reads will re-panic until a dependency changes.",
		DocURL:   "https://glintui.dev/docs/errors/E003",
	},

	// ============================================
	// Configuration Errors (E100-E119)
	// ============================================

	"E100": {
		Category: CategoryConfig,
		Message:  "Invalid glint.json",
		Detail:   "The glint.json configuration file is malformed.",
		DocURL:   "https://glintui.dev/docs/errors/E100",
	},
	"E101": {
		Category: CategoryConfig,
		Message:  "Invalid listen address",
		Detail:   "The configured devtools address is not a valid host:port pair.",
		DocURL:   "https://glintui.dev/docs/errors/E101",
	},
	"E102": {
		Category: CategoryConfig,
		Message:  "Invalid bench settings",
		Detail:   "Bench iterations and fan-out must not be negative.",
		DocURL:   "https://glintui.dev/docs/errors/E102",
	},
	"E103": {
		Category: CategoryConfig,
		Message:  "Invalid environment override",
		Detail:   "A GLINT_* environment variable has an unusable value.",
		DocURL:   "https://glintui.dev/docs/errors/E103",
	},

	// ============================================
	// CLI Errors (E120-E139)
	// ============================================

	"E120": {
		Category: CategoryCLI,
		Message:  "Not a Glint project",
		Detail:   "The current directory is not a Glint project. Run this command from a directory with glint.json.",
		DocURL:   "https://glintui.dev/docs/errors/E120",
	},
	"E121": {
		Category: CategoryCLI,
		Message:  "Unknown bench profile",
		Detail:   "The requested bench profile is not defined.",
		DocURL:   "https://glintui.dev/docs/errors/E121",
	},
	"E122": {
		Category: CategoryCLI,
		Message:  "Cannot write report",
		Detail:   "The benchmark report could not be written to the requested path.",
		DocURL:   "https://glintui.dev/docs/errors/E122",
	},
	"E123": {
		Category: CategoryCLI,
		Message:  "Devtools server failed",
		Detail:   "The devtools inspector server could not be started.",
		DocURL:   "https://glintui.dev/docs/errors/E123",
	},
	"E124": {
		Category: CategoryCLI,
		Message:  "Project already initialized",
		Detail:   "A glint.json already exists in this directory.",
		DocURL:   "https://glintui.dev/docs/errors/E124",
	},
}

// GetAllCodes returns all registered error codes.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

// Register adds a new error template to the registry.
func Register(code string, template ErrorTemplate) {
	registry[code] = template
}
