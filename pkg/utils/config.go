package utils

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	JWT      JWTConfig
	OTP      OTPConfig
	Password PasswordConfig
	SMS      SMSConfig
	Email    EmailConfig
	Redis    RedisConfig
	Auth     AuthConfig
}

type AppConfig struct {
	Name          string
	Port          string
	Env           string
	Debug         bool
	LogPath       string
	PublicBaseURL string

	// AllowedOrigins for CORS; empty means any origin.
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	MaxConns int32
}

type JWTConfig struct {
	AccessSecret  string
	RefreshSecret string
	Issuer        string
	AdminTTL      time.Duration
	GymOwnerTTL   time.Duration
	UserTTL       time.Duration
	RefreshTTL    time.Duration
}

type OTPConfig struct {
	ExpiryMinutes int
	Length        int
}

type PasswordConfig struct {
	MinLength      int
	InviteTTLHours int
	BcryptCost     int
}

type SMSConfig struct {
	AccountSID         string
	AuthToken          string
	From               string
	DefaultCountryCode string
}

type EmailConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// AuthConfig toggles how member tokens are checked on protected routes.
type AuthConfig struct {
	MemberDBBacked bool
}

func LoadConfig() (*Config, error) {
	// .env is optional; real environment variables win
	_ = godotenv.Load()

	viper.AutomaticEnv()

	// Set defaults
	viper.SetDefault("APP_NAME", "gym-backoffice")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("DEBUG", false)
	viper.SetDefault("LOG_PATH", "logs/")
	viper.SetDefault("PUBLIC_BASE_URL", "http://localhost:8080")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_MAX_CONNS", 10)
	viper.SetDefault("JWT_ISSUER", "gym-backoffice")
	viper.SetDefault("JWT_ADMIN_TTL_HOURS", 24)
	viper.SetDefault("JWT_GYM_OWNER_TTL_HOURS", 24)
	viper.SetDefault("JWT_USER_TTL_HOURS", 24)
	viper.SetDefault("JWT_REFRESH_TTL_DAYS", 30)
	viper.SetDefault("OTP_EXPIRY_MINUTES", 5)
	viper.SetDefault("OTP_LENGTH", 4)
	viper.SetDefault("PASSWORD_MIN_LENGTH", 6)
	viper.SetDefault("INVITE_TTL_HOURS", 48)
	viper.SetDefault("BCRYPT_COST", 10)
	viper.SetDefault("SMS_DEFAULT_COUNTRY_CODE", "+91")
	viper.SetDefault("SMTP_PORT", 587)
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("MEMBER_DB_BACKED", false)

	config := &Config{
		App: AppConfig{
			Name:           viper.GetString("APP_NAME"),
			Port:           viper.GetString("PORT"),
			Env:            viper.GetString("APP_ENV"),
			Debug:          viper.GetBool("DEBUG"),
			LogPath:        viper.GetString("LOG_PATH"),
			PublicBaseURL:  viper.GetString("PUBLIC_BASE_URL"),
			AllowedOrigins: splitList(viper.GetString("CORS_ALLOWED_ORIGINS")),
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			Name:     viper.GetString("DB_NAME"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASS"),
			MaxConns: viper.GetInt32("DB_MAX_CONNS"),
		},
		JWT: JWTConfig{
			AccessSecret:  viper.GetString("JWT_SECRET"),
			RefreshSecret: viper.GetString("REFRESH_TOKEN_SECRET"),
			Issuer:        viper.GetString("JWT_ISSUER"),
			AdminTTL:      time.Duration(viper.GetInt("JWT_ADMIN_TTL_HOURS")) * time.Hour,
			GymOwnerTTL:   time.Duration(viper.GetInt("JWT_GYM_OWNER_TTL_HOURS")) * time.Hour,
			UserTTL:       time.Duration(viper.GetInt("JWT_USER_TTL_HOURS")) * time.Hour,
			RefreshTTL:    time.Duration(viper.GetInt("JWT_REFRESH_TTL_DAYS")) * 24 * time.Hour,
		},
		OTP: OTPConfig{
			ExpiryMinutes: viper.GetInt("OTP_EXPIRY_MINUTES"),
			Length:        viper.GetInt("OTP_LENGTH"),
		},
		Password: PasswordConfig{
			MinLength:      viper.GetInt("PASSWORD_MIN_LENGTH"),
			InviteTTLHours: viper.GetInt("INVITE_TTL_HOURS"),
			BcryptCost:     viper.GetInt("BCRYPT_COST"),
		},
		SMS: SMSConfig{
			AccountSID:         viper.GetString("TWILIO_ACCOUNT_SID"),
			AuthToken:          viper.GetString("TWILIO_AUTH_TOKEN"),
			From:               viper.GetString("TWILIO_PHONE_NUMBER"),
			DefaultCountryCode: viper.GetString("SMS_DEFAULT_COUNTRY_CODE"),
		},
		Email: EmailConfig{
			Host:     viper.GetString("SMTP_HOST"),
			Port:     viper.GetInt("SMTP_PORT"),
			User:     viper.GetString("SMTP_USER"),
			Password: viper.GetString("SMTP_PASS"),
			From:     viper.GetString("EMAIL_FROM"),
		},
		Redis: RedisConfig{
			Addr:     viper.GetString("REDIS_ADDR"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		Auth: AuthConfig{
			MemberDBBacked: viper.GetBool("MEMBER_DB_BACKED"),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate rejects configurations that would let one secret forge the other kind of token.
func (c *Config) Validate() error {
	if c.JWT.AccessSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.JWT.RefreshSecret == "" {
		return errors.New("REFRESH_TOKEN_SECRET is required")
	}
	if c.JWT.AccessSecret == c.JWT.RefreshSecret {
		return errors.New("JWT_SECRET and REFRESH_TOKEN_SECRET must differ")
	}
	if c.OTP.ExpiryMinutes <= 0 {
		return errors.New("OTP_EXPIRY_MINUTES must be positive")
	}
	if c.Password.MinLength <= 0 {
		return errors.New("PASSWORD_MIN_LENGTH must be positive")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

func (c *Config) InviteTTL() time.Duration {
	return time.Duration(c.Password.InviteTTLHours) * time.Hour
}

func (c *Config) OTPWindow() time.Duration {
	return time.Duration(c.OTP.ExpiryMinutes) * time.Minute
}

// splitList parses a comma-separated env value, dropping blanks.
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
