package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quotebuilder-backend/config"
	"quotebuilder-backend/controllers"
	"quotebuilder-backend/models"
	"quotebuilder-backend/routes"
	"quotebuilder-backend/services"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func init() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}
	config.ConnectDB()

	config.DB.AutoMigrate(
		&models.Company{},
		&models.Quote{},
		&models.Task{},
		&models.ReminderLog{},
	)
}

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	clock := services.SystemClock{}
	store := services.NewGormStore(config.DB)
	notifiers := &services.NotifierSet{WhatsApp: services.NewTwilioWhatsAppNotifier()}
	dispatcher := services.NewDispatcher(store, store, store, notifiers, clock)
	replies := services.NewReplyService(store, store, clock)

	jobs := services.NewJobQueue(dispatcher, 32)
	jobs.Start(4)
	scheduler := services.StartDispatchCron(jobs)

	r := routes.SetupRouter(routes.Deps{
		Tasks:     &controllers.TaskController{Store: store, Clock: clock},
		Reminders: &controllers.ReminderController{Dispatcher: dispatcher, Jobs: jobs, Store: store, Logs: store, Clock: clock},
		Webhooks:  &controllers.WebhookController{Replies: replies, Store: store},
	})
	printRoutes(r)

	srv := &http.Server{Addr: ":" + port, Handler: r}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")
	scheduler.Stop()
	jobs.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("server shutdown: %v", err)
	}
}

func printRoutes(r *gin.Engine) {
	routes := r.Routes()
	for _, route := range routes {
		fmt.Printf("%-6s %s\n", route.Method, route.Path)
	}
}
