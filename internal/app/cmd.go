package app

import "slices"

// Command はサブコマンド名。
type Command string

const (
	CommandServe   Command = "serve"   // APIサーバー
	CommandWorker  Command = "worker"  // 期限切れログインセッションの定期削除
	CommandMigrate Command = "migrate" // スキーマを最新まで適用
	// CommandHealthcheck はdistrolessイメージのHEALTHCHECKから呼ぶ。
	CommandHealthcheck Command = "healthcheck"
	// CommandTimer は端末でポモドーロタイマーを動かし、完了セッションをAPIに記録する。
	CommandTimer Command = "timer"
)

var commands = []Command{CommandServe, CommandWorker, CommandMigrate, CommandHealthcheck, CommandTimer}

// ParseCommand はargs[0]をサブコマンドとして解釈する。
// 引数なしや未知の名前はserveとして扱う。2番目以降の引数は各コマンドに渡す。
func ParseCommand(args []string) Command {
	if len(args) == 0 {
		return CommandServe
	}
	if c := Command(args[0]); slices.Contains(commands, c) {
		return c
	}
	return CommandServe
}
