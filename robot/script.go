package robot

// Script files live in ScriptDir next to the code that runs them and carry
// the ScriptExt extension.
const (
	ScriptDir = "scripts"
	ScriptExt = ".rpt"
)
