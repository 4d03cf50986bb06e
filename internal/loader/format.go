package loader

// Format is the module format reported back to the host module system.
type Format string

const (
	FormatBuiltin            Format = "builtin"
	FormatCommonJS           Format = "commonjs"
	FormatCommonJSTypeScript Format = "commonjs-typescript"
	FormatJSON               Format = "json"
	FormatModule             Format = "module"
	FormatModuleTypeScript   Format = "module-typescript"
	FormatWasm               Format = "wasm"
)

// DefaultType is assumed when the caller declares no type attribute.
const DefaultType = "module"

// FallbackFormat is reported for type tags outside the known set.
const FallbackFormat = FormatCommonJS

var knownFormats = map[string]Format{
	string(FormatBuiltin):            FormatBuiltin,
	string(FormatCommonJS):           FormatCommonJS,
	string(FormatCommonJSTypeScript): FormatCommonJSTypeScript,
	string(FormatJSON):               FormatJSON,
	string(FormatModule):             FormatModule,
	string(FormatModuleTypeScript):   FormatModuleTypeScript,
	string(FormatWasm):               FormatWasm,
}

// ResolveFormat maps a declared type tag to a Format. An empty tag means
// DefaultType. Unknown tags are not an error: they resolve to commonjs.
func ResolveFormat(declaredType string) Format {
	if declaredType == "" {
		declaredType = DefaultType
	}
	if format, ok := knownFormats[declaredType]; ok {
		return format
	}
	return FallbackFormat
}

// Formats lists every known format in a stable order.
func Formats() []Format {
	return []Format{
		FormatBuiltin,
		FormatCommonJS,
		FormatCommonJSTypeScript,
		FormatJSON,
		FormatModule,
		FormatModuleTypeScript,
		FormatWasm,
	}
}

// ContentType returns the MIME type used when serving a source of this format
// over HTTP.
func (f Format) ContentType() string {
	switch f {
	case FormatJSON:
		return "application/json"
	case FormatWasm:
		return "application/wasm"
	case FormatModuleTypeScript, FormatCommonJSTypeScript:
		return "application/typescript"
	default:
		return "text/javascript"
	}
}
