// Dev-only helper that fills the Times collection with fake submissions,
// useful for exercising the notifier sweep and the archiver mirror locally.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/HarveyDWilliams/PlusWordChatbot/pkg/ledger"

	"github.com/goccy/go-json"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var names = []string{"Harvey", "Rosie", "Tom", "Ellie", "Jack", "Megan"}

func main() {
	addr := flag.String("addr", ":8082", "HTTP server address")
	uri := flag.String("uri", "mongodb://localhost:27017", "MongoDB URI")
	dbName := flag.String("db", "PlusWord", "Database name")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(*uri))
	if err != nil {
		log.Fatalf("failed to connect to mongodb: %v", err)
	}
	defer client.Disconnect(context.Background())

	coll := client.Database(*dbName).Collection(ledger.Collection)

	http.HandleFunc("/insert", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		idx := rand.Intn(len(names))
		sub := ledger.Submission{
			Name:       names[idx],
			PlayerID:   fmt.Sprintf("4477009%05d", idx),
			Seconds:    int64(rand.Intn(3600) + 30),
			RecordedAt: time.Now(),
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if _, err := coll.InsertOne(ctx, sub); err != nil {
			http.Error(w, fmt.Sprintf("failed to insert: %v", err), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(sub)
	})

	http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	server := &http.Server{Addr: *addr}

	go func() {
		fmt.Printf("Seed server starting on %s (MongoDB: %s)\n", *addr, *uri)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	fmt.Println("\nShutting down seed server...")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	server.Shutdown(shutdownCtx)
}
