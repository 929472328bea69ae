package main

import (
	"log"
	"os"

	"aneti-backend/applications"
	"aneti-backend/billing"
	"aneti-backend/conn"
	"aneti-backend/documents"
	"aneti-backend/login"
	"aneti-backend/migrations"
	"aneti-backend/notifications"
	"aneti-backend/plans"
	"aneti-backend/states"
	"aneti-backend/stats"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file, using environment as-is")
	}

	db, err := conn.NewMySQL()
	if err != nil {
		log.Fatalf("mysql connection failed: %v", err)
	}

	migrations.Init(db)
	if err := migrations.Migrate(); err != nil {
		log.Fatalf("migrate failed: %v", err)
	}
	if err := migrations.SeedDefaultPlans(); err != nil {
		log.Fatalf("seed plans failed: %v", err)
	}
	if err := migrations.SeedAdminUser(); err != nil {
		log.Fatalf("seed admin failed: %v", err)
	}
	stats.Init(db)

	planRepo := plans.NewRepository(db)
	docRepo := documents.NewRepository(db)
	appRepo := applications.NewRepository(db)

	hub := notifications.NewHub()
	go hub.Run()
	notifier := notifications.NewService(db, hub)

	r := gin.Default()
	r.Use(cors.Default())
	r.Static("/uploads", "./uploads")

	login.RegisterRoutes(r)
	states.RegisterRoutes(r)
	plans.NewHandler(planRepo).RegisterRoutes(r)
	documents.NewHandler(docRepo).RegisterRoutes(r)

	appHandler := applications.NewHandler(appRepo, planRepo, docRepo, notifier)
	appHandler.RegisterRoutes(r)
	appHandler.RegisterAdminRoutes(r)

	stripeSvc := billing.NewFromEnv(planRepo, appRepo)
	if stripeSvc == nil {
		log.Printf("[STRIPE] STRIPE_SECRET_KEY not set; paid registrations disabled")
	}
	billing.NewHandler(stripeSvc, appRepo).RegisterRoutes(r)

	notifier.RegisterRoutes(r)
	stats.RegisterAdminRoutes(r)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("ANETI backend listening on :%s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatal(err)
	}
}
