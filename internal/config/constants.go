// internal/config/constants.go
package config

// アプリケーション情報
const (
	AppName    = "stoic-journal"
	AppVersion = "1.0.0"
)

// デフォルト設定値
const (
	DefaultServerPort           = ":8080"
	DefaultLogLevel             = "info"
	DefaultJournalListLimit     = 20
	DefaultMentorModel          = "gpt-4o-mini"
	DefaultMentorMaxTokens      = 600
	DefaultMentorTimeoutSeconds = 60
)

// 原典テキストの既定の配置
const (
	DefaultEnchiridionPath = "content/source-texts/enchiridion.txt"
	DefaultMeditationsPath = "content/source-texts/meditations.txt"
	DefaultSenecaDir       = "content/source-texts/seneca-pages"
)
