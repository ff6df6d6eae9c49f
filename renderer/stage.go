package renderer

import "fmt"

// Stage is a state of the pipeline. Stages run in declaration order; Failed can be
// reached from any of them and, like Drawn, is terminal.
type Stage int

const (
	AwaitingResources Stage = iota
	CompilingShaders
	LinkingProgram
	BindingAttributes
	UploadingBuffers
	Drawn
	Failed
)

var stageNames = [...]string{
	AwaitingResources: "AwaitingResources",
	CompilingShaders:  "CompilingShaders",
	LinkingProgram:    "LinkingProgram",
	BindingAttributes: "BindingAttributes",
	UploadingBuffers:  "UploadingBuffers",
	Drawn:             "Drawn",
	Failed:            "Failed",
}

func (s Stage) String() string {
	if s >= 0 && int(s) < len(stageNames) {
		return stageNames[s]
	}
	return fmt.Sprintf("Stage(%d)", int(s))
}

// Terminal reports whether no further transition can happen.
func (s Stage) Terminal() bool { return s == Drawn || s == Failed }
