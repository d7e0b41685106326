package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jonathanprogram2/obel/assistant"
	"github.com/jonathanprogram2/obel/assistant/llm"
	"github.com/jonathanprogram2/obel/assistant/recall"
	"github.com/jonathanprogram2/obel/internal/profile"
	"github.com/jonathanprogram2/obel/internal/version"
	"github.com/jonathanprogram2/obel/server"
	"github.com/jonathanprogram2/obel/store"
	"github.com/jonathanprogram2/obel/store/db"
)

var rootCmd = &cobra.Command{
	Use:   "obel",
	Short: `A personal dashboard backend: markets, news, weather, and an AI workspace assistant.`,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		// Local .env is a convenience for direct binary runs.
		_ = godotenv.Load()
		return nil
	},
	Run: func(_ *cobra.Command, _ []string) {
		instanceProfile := &profile.Profile{
			Mode:        viper.GetString("mode"),
			Addr:        viper.GetString("addr"),
			Port:        viper.GetInt("port"),
			Data:        viper.GetString("data"),
			Driver:      viper.GetString("driver"),
			DSN:         viper.GetString("dsn"),
			InstanceURL: viper.GetString("instance-url"),
			Version:     version.GetCurrentVersion(viper.GetString("mode")),
		}
		instanceProfile.FromEnv()
		if err := instanceProfile.Validate(); err != nil {
			slog.Error("invalid profile", "error", err)
			os.Exit(1)
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		dbDriver, err := db.NewDBDriver(instanceProfile)
		if err != nil {
			slog.Error("failed to create db driver", "driver", instanceProfile.Driver, "error", err)
			os.Exit(1)
		}

		storeInstance := store.New(dbDriver, instanceProfile)
		if err := storeInstance.Migrate(ctx); err != nil {
			slog.Error("failed to migrate", "error", err)
			os.Exit(1)
		}

		bot, err := buildAssistant(instanceProfile)
		if err != nil {
			slog.Error("failed to build assistant", "error", err)
			os.Exit(1)
		}

		s, err := server.NewServer(instanceProfile, storeInstance, bot)
		if err != nil {
			slog.Error("failed to create server", "error", err)
			os.Exit(1)
		}

		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		go func() {
			<-c
			s.Shutdown(ctx)
			cancel()
		}()

		printGreetings(instanceProfile)

		if err := s.Start(ctx); err != nil {
			slog.Error("failed to start server", "error", err)
			os.Exit(1)
		}
		<-ctx.Done()
	},
}

// buildAssistant wires the model client and the in-process recall memory.
// A missing API key disables the assistant instead of failing startup so the
// dashboard cards keep working without model credentials.
func buildAssistant(instanceProfile *profile.Profile) (*assistant.Assistant, error) {
	llmService, err := llm.NewService(&llm.Config{
		Provider:       instanceProfile.LLMProvider,
		Model:          instanceProfile.LLMModel,
		EmbeddingModel: instanceProfile.LLMEmbeddingModel,
		APIKey:         instanceProfile.LLMAPIKey,
		BaseURL:        instanceProfile.LLMBaseURL,
		Timeout:        instanceProfile.LLMTimeout,
	})
	if err != nil {
		if errors.Is(err, llm.ErrNoAPIKey) {
			slog.Warn("assistant disabled", "reason", "no LLM API key configured")
			return nil, nil
		}
		return nil, err
	}
	slog.Info("assistant enabled",
		"provider", instanceProfile.LLMProvider,
		"model", instanceProfile.LLMModel,
	)
	return assistant.New(llmService, assistant.WithRecall(recall.NewStore(llmService))), nil
}

func init() {
	viper.SetDefault("mode", "dev")
	viper.SetDefault("driver", "sqlite")
	viper.SetDefault("port", 28090)

	rootCmd.PersistentFlags().String("mode", "dev", `mode of server, can be "prod" or "dev" or "demo"`)
	rootCmd.PersistentFlags().String("addr", "", "address of server")
	rootCmd.PersistentFlags().Int("port", 28090, "port of server")
	rootCmd.PersistentFlags().String("data", "", "data directory")
	rootCmd.PersistentFlags().String("driver", "sqlite", "database driver (sqlite, postgres)")
	rootCmd.PersistentFlags().String("dsn", "", "database source name(aka. DSN)")
	rootCmd.PersistentFlags().String("instance-url", "", "the url of your obel instance")

	for _, flag := range []string{"mode", "addr", "port", "data", "driver", "dsn", "instance-url"} {
		if err := viper.BindPFlag(flag, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
			panic(err)
		}
	}

	viper.SetEnvPrefix("obel")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
}

func printGreetings(profile *profile.Profile) {
	fmt.Printf("Obel %s started successfully!\n", profile.Version)
	fmt.Printf("Data directory: %s\n", profile.Data)
	fmt.Printf("Database driver: %s\n", profile.Driver)
	fmt.Printf("Mode: %s\n", profile.Mode)
	if len(profile.Addr) == 0 {
		fmt.Printf("Server running on port %d\n", profile.Port)
	} else {
		fmt.Printf("Server running on %s:%d\n", profile.Addr, profile.Port)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		panic(err)
	}
}
