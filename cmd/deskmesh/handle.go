package main

import (
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/spf13/cobra"

	"github.com/deskmesh/deskmesh"
	"github.com/deskmesh/deskmesh/capability"
	"github.com/deskmesh/deskmesh/config"
	"github.com/deskmesh/deskmesh/conversation"
	"github.com/deskmesh/deskmesh/oracle"
	oracleanthropic "github.com/deskmesh/deskmesh/oracle/anthropic"
	oracleopenai "github.com/deskmesh/deskmesh/oracle/openai"
	"github.com/deskmesh/deskmesh/retry"
	"github.com/deskmesh/deskmesh/worker"
	"github.com/deskmesh/deskmesh/workplace"
)

var sessionID string

var handleCmd = &cobra.Command{
	Use:   "handle [request...]",
	Short: "Route one request through the worker hierarchy",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mesh, cleanup, err := buildMesh()
		if err != nil {
			return err
		}
		defer cleanup()

		answer, err := mesh.Handle(cmd.Context(), sessionID, strings.Join(args, " "))
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), answer)
		return nil
	},
}

func init() {
	handleCmd.Flags().StringVarP(&sessionID, "session", "s", "default", "Session identifier; requests sharing it are serialized and share history")
}

// buildMesh assembles the full stack from --config, or from the built-in
// workplace team when no config file is given. The returned cleanup closes
// any durable store.
func buildMesh() (*deskmesh.Mesh, func(), error) {
	cleanup := func() {}
	logger := newLogger()

	var (
		cfg  *config.Config
		root *worker.Worker
		err  error
	)

	reg := capability.NewRegistry()
	if err := workplace.Register(reg); err != nil {
		return nil, nil, err
	}

	if configPath != "" {
		cfg, err = config.Load(configPath)
		if err != nil {
			return nil, nil, err
		}
		root, err = cfg.BuildTree(reg)
		if err != nil {
			return nil, nil, err
		}
	} else {
		cfg = &config.Config{}
		root = workplace.Team()
	}

	store, storeCleanup, err := buildStore(cfg)
	if err != nil {
		return nil, nil, err
	}
	cleanup = storeCleanup

	orc := buildOracle(cfg)

	// Validate retry tuning before wiring it in; Apply inside the option
	// function cannot surface the error.
	if err := cfg.Retry.Apply(&retry.Options{}); err != nil {
		cleanup()
		return nil, nil, err
	}

	mesh, err := deskmesh.New(root, orc, func(o *deskmesh.Options) {
		o.Store = store
		o.Logger = logger
		o.RetryOptions = []func(o *retry.Options){
			func(o *retry.Options) { _ = cfg.Retry.Apply(o) },
		}
	})
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	return mesh, cleanup, nil
}

func buildStore(cfg *config.Config) (conversation.Store, func(), error) {
	if cfg.History.Backend != "sqlite" {
		return conversation.NewInMemoryStore(), func() {}, nil
	}

	path := cfg.History.Path
	if path == "" {
		path = "deskmesh.db"
	}
	st, err := conversation.OpenSQLite(path)
	if err != nil {
		return nil, nil, err
	}
	return st, func() { _ = st.Close() }, nil
}

func buildOracle(cfg *config.Config) oracle.Oracle {
	switch cfg.Oracle.Provider {
	case "openai":
		return oracleopenai.New(func(o *oracleopenai.Options) {
			if cfg.Oracle.Model != "" {
				o.Model = cfg.Oracle.Model
			}
		})
	default:
		return oracleanthropic.New(func(o *oracleanthropic.Options) {
			if cfg.Oracle.Model != "" {
				o.Model = anthropic.Model(cfg.Oracle.Model)
			}
			if cfg.Oracle.APIKey != "" {
				o.APIKey = cfg.Oracle.APIKey
			}
		})
	}
}
