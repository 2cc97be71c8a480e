package config

// UnitFileExt is the extension of syntax-tree interchange units.
const UnitFileExt = ".yaml"

// UnitFileExtensions are all recognized unit file extensions
var UnitFileExtensions = []string{".yaml", ".yml"}

// SettingsFileName is looked up in the working directory when no -config flag is given.
const SettingsFileName = "flowcheck.yaml"

// Literal combination thresholds.
// Unions that would accumulate more distinct literals than this collapse
// into the general scalar when literal negotiation is enabled.
const (
	LiteralIntegerThreshold = 128
	LiteralStringThreshold  = 128
	LiteralFloatThreshold   = 32
)

// MaxLoopPasses bounds how often a loop body is re-analyzed while
// variable types are still widening.
const MaxLoopPasses = 4

// MaxTemplateDepth bounds recursive template collection through
// extends/implements chains.
const MaxTemplateDepth = 32

// DefaultWorkers is used when settings leave the worker count at zero.
const DefaultWorkers = 8

// Special variable and class names
const (
	ThisVarName   = "$this"
	StaticKeyword = "static"
	SelfKeyword   = "self"
	ParentKeyword = "parent"
	ClosureClass  = "Closure"
)

// Magic method names (lowercased)
const (
	ConstructMethodName = "__construct"
	CloneMethodName     = "__clone"
	GetMethodName       = "__get"
	SetMethodName       = "__set"
	CallMethodName      = "__call"
	CallStaticName      = "__callstatic"
	InvokeMethodName    = "__invoke"
)
