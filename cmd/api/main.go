package main

import (
	"log"
	"time"

	"bistro/internal/config"
	"bistro/internal/domain/model"
	"bistro/internal/handler"
	"bistro/internal/infra/db"
	"bistro/internal/infra/geo"
	"bistro/internal/infra/payment"
	infraRepo "bistro/internal/infra/repository"
	"bistro/internal/server"
	"bistro/internal/usecase"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type realClock struct{}

func (c *realClock) Now() time.Time {
	return time.Now()
}

func main() {
	// .envはローカル開発用。無くてもよい
	_ = godotenv.Load()

	// 金額はJSONでは数値で返す
	decimal.MarshalJSONWithoutQuotes = true

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	//DB接続
	gormDB, err := db.Connect(cfg)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	if err := gormDB.AutoMigrate(
		&model.MenuItem{},
		&model.Order{},
		&model.OrderItem{},
	); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	//Repository（GORM実装）生成
	txManager := infraRepo.NewTxManagerGorm(gormDB)
	menuRepo := infraRepo.NewMenuItemGormRepository(gormDB)
	analyticsRepo := infraRepo.NewAnalyticsGormRepository(gormDB)

	//決済プロバイダ。キー未設定ならモック
	var paymentProvider usecase.PaymentProvider
	if cfg.StripeSecretKey != "" {
		paymentProvider = payment.NewStripeProvider(cfg.StripeSecretKey)
	} else {
		log.Println("STRIPE_SECRET_KEY not set, using mock payment provider")
		paymentProvider = payment.NewMockProvider()
	}

	//経路見積もり。キー未設定ならnilのまま＝モック見積もり
	var estimator usecase.RouteEstimator
	if cfg.GoogleMapsAPIKey != "" {
		est, err := geo.NewGoogleMapsEstimator(cfg.GoogleMapsAPIKey)
		if err != nil {
			log.Fatalf("maps client: %v", err)
		}
		estimator = est
	} else {
		log.Println("GOOGLE_MAPS_API_KEY not set, using mock delivery estimates")
	}

	//Usecase生成
	authUC, err := usecase.NewAuthUsecase(cfg.AdminUsername, cfg.AdminPassword, cfg.JWTSecret, &realClock{})
	if err != nil {
		log.Fatalf("auth usecase: %v", err)
	}
	menuUC := usecase.NewMenuUsecase(menuRepo)
	orderUC := usecase.NewOrderUsecase(txManager, paymentProvider)
	analyticsUC := usecase.NewAnalyticsUsecase(analyticsRepo)
	paymentUC := usecase.NewPaymentUsecase(paymentProvider)
	deliveryUC := usecase.NewDeliveryUsecase(cfg.Delivery, estimator)

	//Handler生成
	h := server.Handlers{
		Auth:    handler.NewAuthHandler(authUC),
		Menu:    handler.NewMenuHandler(menuUC),
		Order:   handler.NewOrderHandler(orderUC, analyticsUC),
		Payment: handler.NewPaymentHandler(paymentUC, deliveryUC),
	}

	//Server起動
	e := server.New(cfg, h)
	if err := server.Start(e, cfg.Port); err != nil {
		log.Fatalf("server: %v", err)
	}
}
