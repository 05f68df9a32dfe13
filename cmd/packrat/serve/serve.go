// Package servecmder provides the serve command for running the memory API
// server.
package servecmder

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/packratco/packrat/api"
	"github.com/packratco/packrat/api/mcp"
	"github.com/packratco/packrat/pkg/config"
	embeddingutils "github.com/packratco/packrat/pkg/embeddings/utils"
	eventstreamutils "github.com/packratco/packrat/pkg/eventstream/utils"
	languageutils "github.com/packratco/packrat/pkg/language/utils"
	"github.com/packratco/packrat/pkg/logger"
	"github.com/packratco/packrat/pkg/memory"
	vectorutils "github.com/packratco/packrat/pkg/vector/utils"
)

type ServeCommander struct {
	configDir  string
	disableMCP bool
	debug      bool
	logger     *zap.Logger
}

const serveLongDesc string = `Run the Packrat memory API server.

Configuration is read from config.toml, PACKRAT_ environment variables, and
flags, in ascending precedence.`

const serveShortDesc string = "Run the Packrat memory API server"

func NewServeCmd() *cobra.Command {
	cmder := &ServeCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %v", err)
			}
			return cmder.run(cmd)
		},
	}

	cmd.Flags().StringVarP(&cmder.configDir, "config-dir", "c", "", "Directory holding config.toml")
	cmd.Flags().BoolVar(&cmder.disableMCP, "disable-mcp", false, "Disable the MCP endpoint")
	cmd.Flags().StringP("listen", "l", "", "Address for the API server to listen on")
	cmd.Flags().String("vector-provider", "", "Vector store provider (sqlitevec, qdrant)")
	cmd.Flags().String("vector-target", "", "Vector store target (db path or host:port)")
	cmd.Flags().String("events-provider", "", "Event stream provider (nop, kafka)")

	return cmd
}

func (c *ServeCommander) run(cmd *cobra.Command) error {
	c.logger = logger.NewLogger(c.debug)
	defer c.logger.Sync()

	v, err := config.InitViper(c.configDir)
	if err != nil {
		return err
	}
	bindFlags(v, cmd)

	cfg, err := config.Load(v)
	if err != nil {
		return err
	}

	ctx := context.Background()

	embedder, err := embeddingutils.NewEmbedder(&embeddingutils.NewEmbedderOpts{
		ProviderType: cfg.Embedding.Provider,
		TargetURL:    cfg.Embedding.Target,
		Model:        cfg.Embedding.Model,
	})
	if err != nil {
		return fmt.Errorf("creating embedder: %w", err)
	}
	defer embedder.Close()

	lang, err := languageutils.NewService(&languageutils.NewServiceOpts{
		ProviderType: cfg.Language.Provider,
		TargetURL:    cfg.Language.Target,
		Model:        cfg.Language.Model,
		Logger:       c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating language service: %w", err)
	}
	defer lang.Close()

	vec, err := vectorutils.NewDriver(ctx, &vectorutils.NewDriverOpts{
		ProviderType: cfg.VectorStore.Provider,
		Target:       cfg.VectorStore.Target,
		Collection:   cfg.VectorStore.Collection,
		Dimensions:   cfg.Embedding.Dimensions,
		Logger:       c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating vector driver: %w", err)
	}
	defer vec.Close()

	events, err := eventstreamutils.NewPublisher(&eventstreamutils.NewPublisherOpts{
		ProviderType: cfg.Events.Provider,
		Brokers:      cfg.Events.Brokers,
		Topic:        cfg.Events.Topic,
		Workers:      cfg.Events.Workers,
		QueueSize:    cfg.Events.QueueSize,
		Logger:       c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating event publisher: %w", err)
	}
	defer events.Close()

	policy := memory.FailFast
	if cfg.Memory.ErrorPolicy == "collect_all" {
		policy = memory.CollectAll
	}

	svc, err := memory.NewService(memory.Config{
		Vector:   vec,
		Language: lang,
		Embedder: embedder,
		Events:   events,
		Policy:   policy,
		Logger:   c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating memory service: %w", err)
	}

	mcpServer, err := mcp.NewServer(mcp.Config{
		Service: svc,
		Noop:    c.disableMCP,
		Logger:  c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating MCP server: %w", err)
	}

	server := api.NewServer(api.Config{
		ListenAddr: cfg.API.Listen,
	}, svc, mcpServer, c.logger)

	errChan := make(chan error, 1)
	go func() {
		if err := server.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
		return server.Shutdown()
	}
}

// bindFlags maps the flags that shadow config keys onto viper so flag values
// win over the environment and the config file.
func bindFlags(v *viper.Viper, cmd *cobra.Command) {
	bindings := map[string]string{
		"api.listen":            "listen",
		"vector_store.provider": "vector-provider",
		"vector_store.target":   "vector-target",
		"events.provider":       "events-provider",
	}
	for key, flag := range bindings {
		if f := cmd.Flags().Lookup(flag); f != nil && f.Changed {
			v.Set(key, f.Value.String())
		}
	}
}
