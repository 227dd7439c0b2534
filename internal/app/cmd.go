package app

// Command はpowerfleetのサブコマンド。
type Command string

const (
	// CommandServe はAPIサーバーと保守アラートスキャンを起動する。
	CommandServe Command = "serve"
	// CommandWorker は保守アラートスキャンだけを単独で起動する。
	CommandWorker Command = "worker"
	// CommandMigrate は埋め込みスキーマを適用して終了する。
	CommandMigrate Command = "migrate"
	// CommandHealthcheck は稼働中サーバーの/healthを確認して終了する。
	// distrolessイメージにはcurlが無いため、DockerのHEALTHCHECKから呼ばれる。
	CommandHealthcheck Command = "healthcheck"
)

var commands = map[string]Command{
	string(CommandServe):       CommandServe,
	string(CommandWorker):      CommandWorker,
	string(CommandMigrate):     CommandMigrate,
	string(CommandHealthcheck): CommandHealthcheck,
}

// ParseCommand は先頭の引数をサブコマンドとして解釈する。
// 引数が無い場合や未知の値の場合はserveとして扱う。
func ParseCommand(args []string) Command {
	if len(args) == 0 {
		return CommandServe
	}
	if cmd, ok := commands[args[0]]; ok {
		return cmd
	}
	return CommandServe
}
