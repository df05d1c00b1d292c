// internal/config/config.go
package config

import (
	"log"

	"github.com/spf13/viper"
)

type DatabaseConfig struct {
	URL string `mapstructure:"url"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

type AppConfig struct {
	Env              string `mapstructure:"env"`
	JournalListLimit int    `mapstructure:"journal_list_limit"`
}

// MentorConfig は外部メンター (Chat Completions) の設定です
type MentorConfig struct {
	APIKey         string `mapstructure:"api_key"`
	Model          string `mapstructure:"model"`
	MaxTokens      int    `mapstructure:"max_tokens"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// CurriculumConfig は原典ファイルの配置です (cmd/seed が参照)
type CurriculumConfig struct {
	EnchiridionPath string `mapstructure:"enchiridion_path"`
	MeditationsPath string `mapstructure:"meditations_path"`
	SenecaDir       string `mapstructure:"seneca_dir"`
}

type Config struct {
	Database   DatabaseConfig   `mapstructure:"database"`
	Server     ServerConfig     `mapstructure:"server"`
	Log        LogConfig        `mapstructure:"log"`
	CORS       CORSConfig       `mapstructure:"cors"`
	App        AppConfig        `mapstructure:"app"`
	Mentor     MentorConfig     `mapstructure:"mentor"`
	Curriculum CurriculumConfig `mapstructure:"curriculum"`
}

var Cfg Config

func LoadConfig(path string) error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(path)
	viper.AddConfigPath(".")

	// 環境変数を自動で読み込む (例: APP_SERVER_PORT)
	viper.SetEnvPrefix("APP")
	viper.AutomaticEnv()
	viper.BindEnv("database.url", "DATABASE_URL")
	viper.BindEnv("mentor.api_key", "OPENAI_API_KEY")
	viper.BindEnv("app.env", "APP_ENV")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("Warning: Config file not found. Using default settings or environment variables if available.")
		} else {
			log.Printf("Error reading config file: %s\n", err)
			return err
		}
	}

	if err := viper.Unmarshal(&Cfg); err != nil {
		log.Printf("Error unmarshalling config: %s\n", err)
		return err
	}

	// --- デフォルト値の設定 ---
	if Cfg.Server.Port == "" {
		Cfg.Server.Port = DefaultServerPort
	}
	if Cfg.Log.Level == "" {
		Cfg.Log.Level = DefaultLogLevel
	}
	if Cfg.App.JournalListLimit <= 0 {
		Cfg.App.JournalListLimit = DefaultJournalListLimit
	}
	if Cfg.Mentor.Model == "" {
		Cfg.Mentor.Model = DefaultMentorModel
	}
	if Cfg.Mentor.MaxTokens <= 0 {
		Cfg.Mentor.MaxTokens = DefaultMentorMaxTokens
	}
	if Cfg.Mentor.TimeoutSeconds <= 0 {
		Cfg.Mentor.TimeoutSeconds = DefaultMentorTimeoutSeconds
	}
	if Cfg.Curriculum.EnchiridionPath == "" {
		Cfg.Curriculum.EnchiridionPath = DefaultEnchiridionPath
	}
	if Cfg.Curriculum.MeditationsPath == "" {
		Cfg.Curriculum.MeditationsPath = DefaultMeditationsPath
	}
	if Cfg.Curriculum.SenecaDir == "" {
		Cfg.Curriculum.SenecaDir = DefaultSenecaDir
	}
	if Cfg.Database.URL == "" {
		log.Println("Warning: Database URL is not set in config.")
	}

	log.Println("Config loaded successfully")
	log.Printf("Server Port: %s", Cfg.Server.Port)
	log.Printf("App Env: %s", Cfg.App.Env)

	return nil
}
