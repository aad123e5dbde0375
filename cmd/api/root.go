package main

import (
	"github.com/spf13/cobra"
)

// NewRootCmd は postboard のルートコマンドを作成します。
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "postboard",
		Short: "postboard - 投稿掲示板の API サーバー",
		Long: `postboard はユーザー登録・ログインと投稿の作成・編集を提供する API サーバーです。
設定は環境変数（または .env.local）から読み込みます。`,
		SilenceUsage: true,
	}

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())

	return cmd
}
