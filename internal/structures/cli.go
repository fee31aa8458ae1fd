package structures

const (
	ModeUpdate = "update"
	ModeServe  = "serve"
)

type CliFlags struct {
	ConfigPath string
	DebugMode  bool
	Mode       string
}
