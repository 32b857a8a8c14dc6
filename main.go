package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"trello-project/microservices/tasktracker-service/config"
	"trello-project/microservices/tasktracker-service/handlers"
	"trello-project/microservices/tasktracker-service/logging"
	"trello-project/microservices/tasktracker-service/middleware"
	"trello-project/microservices/tasktracker-service/repositories"
	"trello-project/microservices/tasktracker-service/services"

	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func main() {
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Logger.Fatalf("Event ID: CONFIG_ERROR, Description: %v", err)
	}

	logging.InitLogger(cfg.LogFile, cfg.LogLevel)
	logging.Logger.Info("Event ID: SERVICE_START, Description: Starting Task Tracker API...")
	if envErr != nil {
		logging.Logger.Infof("Event ID: ENV_FILE_SKIPPED, Description: No .env file loaded (%v), using process environment", envErr)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		logging.Logger.Fatalf("Event ID: DB_CONNECTION_FAILED, Description: Database connection for MongoDB failed: %v", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		logging.Logger.Fatalf("Event ID: DB_PING_FAILED, Description: MongoDB connection ping error: %v", err)
	}
	logging.Logger.Infof("Event ID: DB_CONNECTED, Description: Successfully connected to MongoDB database %s", cfg.Database)

	db := client.Database(cfg.Database)
	breaker := repositories.NewStoreBreaker("MongoStoreCB")
	userRepo := repositories.NewUserRepo(db.Collection(repositories.UsersCollection), breaker)
	taskRepo := repositories.NewTaskRepo(db.Collection(repositories.TasksCollection), breaker)

	if err := userRepo.EnsureIndexes(ctx); err != nil {
		logging.Logger.Warnf("Event ID: DB_INDEX_FAILED, Description: %v", err)
	}
	if err := taskRepo.EnsureIndexes(ctx); err != nil {
		logging.Logger.Warnf("Event ID: DB_INDEX_FAILED, Description: %v", err)
	}

	userService := services.NewUserService(userRepo)
	taskService := services.NewTaskService(taskRepo, userRepo)

	router := handlers.NewRouter(
		handlers.NewUserHandler(userService),
		handlers.NewTaskHandler(taskService),
	)

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      middleware.Chain(router, cfg.CORSOrigin),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logging.Logger.Infof("Event ID: SERVER_START_INFO, Description: API listening on http://localhost%s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Logger.Fatalf("Event ID: SERVER_FATAL_ERROR, Description: Server failed to start: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logging.Logger.Info("Event ID: SERVICE_STOP, Description: Shutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Logger.Errorf("Event ID: SERVER_SHUTDOWN_ERROR, Description: %v", err)
	}
	if err := client.Disconnect(shutdownCtx); err != nil {
		logging.Logger.Errorf("Event ID: DB_DISCONNECT_ERROR, Description: %v", err)
	}
}
