package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/shopspring/decimal"
)

// Deliveryは配達料パラメータ（環境変数から注入）
type Delivery struct {
	OriginAddress    string          // 店舗住所（距離計算の起点）
	BaseFee          decimal.Decimal // 基本料金
	PerMileFee       decimal.Decimal // 1マイルあたり料金
	MaxDistanceMiles float64         // 配達可能距離の上限
	MaxTimeMinutes   float64         // 配達可能時間の上限
}

// Configはアプリ全体の設定
type Config struct {
	Port string

	DatabaseURL      string // あれば最優先
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresHost     string
	PostgresPort     string
	PostgresSSLMode  string

	JWTSecret     string
	AdminUsername string
	AdminPassword string // 起動時にbcryptでハッシュ化して保持し直す

	StripeSecretKey  string // 未設定ならモック決済
	GoogleMapsAPIKey string // 未設定ならモック配達見積もり

	Delivery Delivery
}

// Loadは環境変数から設定を組み立てる
func Load() (Config, error) {
	cfg := Config{
		Port: getenv("PORT", "8080"),

		DatabaseURL:      os.Getenv("DATABASE_URL"),
		PostgresUser:     getenv("POSTGRES_USER", "postgres"),
		PostgresPassword: getenv("POSTGRES_PASSWORD", "postgres"),
		PostgresDB:       getenv("POSTGRES_DB", "bistro"),
		PostgresHost:     getenv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getenv("POSTGRES_PORT", "5432"),
		PostgresSSLMode:  getenv("POSTGRES_SSLMODE", "disable"),

		JWTSecret:     os.Getenv("JWT_SECRET"),
		AdminUsername: os.Getenv("ADMIN_USERNAME"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),

		StripeSecretKey:  os.Getenv("STRIPE_SECRET_KEY"),
		GoogleMapsAPIKey: os.Getenv("GOOGLE_MAPS_API_KEY"),
	}

	//必須チェック
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.AdminUsername == "" {
		return Config{}, fmt.Errorf("ADMIN_USERNAME is required")
	}
	if cfg.AdminPassword == "" {
		return Config{}, fmt.Errorf("ADMIN_PASSWORD is required")
	}

	baseFee, err := decimalEnv("DELIVERY_BASE_FEE", "3.00")
	if err != nil {
		return Config{}, err
	}
	perMile, err := decimalEnv("DELIVERY_PER_MILE_FEE", "1.50")
	if err != nil {
		return Config{}, err
	}
	maxDist, err := floatEnv("DELIVERY_MAX_DISTANCE_MILES", 10)
	if err != nil {
		return Config{}, err
	}
	maxTime, err := floatEnv("DELIVERY_MAX_TIME_MINUTES", 45)
	if err != nil {
		return Config{}, err
	}

	cfg.Delivery = Delivery{
		OriginAddress:    os.Getenv("RESTAURANT_ADDRESS"),
		BaseFee:          baseFee,
		PerMileFee:       perMile,
		MaxDistanceMiles: maxDist,
		MaxTimeMinutes:   maxTime,
	}

	return cfg, nil
}

func getenv(key string, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func decimalEnv(key string, def string) (decimal.Decimal, error) {
	v := os.Getenv(key)
	if v == "" {
		v = def
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s must be a decimal: %w", key, err)
	}
	return d, nil
}

func floatEnv(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number: %w", key, err)
	}
	return f, nil
}
