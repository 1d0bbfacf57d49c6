package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jboss-openshift/openshift-kieserver/internal/logger"
	"github.com/jboss-openshift/openshift-kieserver/internal/redis"
	"github.com/jboss-openshift/openshift-kieserver/internal/scheduler"
	redisstore "github.com/jboss-openshift/openshift-kieserver/internal/store/redis"
	sqlstore "github.com/jboss-openshift/openshift-kieserver/internal/store/sql"
	"github.com/jboss-openshift/openshift-kieserver/internal/utils"
)

func newLookupCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lookup",
		Short: "Instance owner lookup maintenance",
	}
	cmd.AddCommand(newLookupSyncCommand())
	return cmd
}

func newLookupSyncCommand() *cobra.Command {
	var (
		databaseURL string
		redisAddr   string
		redisPass   string
		redisDB     int
		ttl         time.Duration
		timeout     time.Duration
		verbose     bool
	)

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Copy instance owners from the runtime database into redis once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if databaseURL == "" {
				return usagef("--database-url is required")
			}
			if redisAddr == "" {
				return usagef("--redis-addr is required")
			}

			log := logger.NewNop()
			if verbose {
				log = logger.New("debug", true)
			}

			ctx := cmd.Context()
			src, err := sqlstore.Open(ctx, databaseURL, log)
			if err != nil {
				return err
			}
			defer utils.MustClose(src)

			client, err := redis.New(ctx, redis.ConnectOptions{
				Addr:           redisAddr,
				Password:       redisPass,
				RedisDB:        redisDB,
				DialTimeout:    5 * time.Second,
				ReadTimeout:    3 * time.Second,
				WriteTimeout:   3 * time.Second,
				PoolSize:       4,
				ConnectTimeout: timeout,
				RetryInterval:  time.Second,
				MaxWait:        5 * time.Second,
				PingTimeout:    2 * time.Second,
				WarnThreshold:  3,
			}, log)
			if err != nil {
				return err
			}
			defer utils.MustClose(client)

			n, err := scheduler.NewLookupSyncer(src, redisstore.NewStore(client), log, 0, ttl).Sync(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "synced %d owners\n", n)
			return nil
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&databaseURL, "database-url", envOr("KIE_REDIRECT_DATABASE_URL", ""), "postgres://, mysql:// or sqlite3:// url of the runtime database")
	fs.StringVar(&redisAddr, "redis-addr", envOr("REDIS_ADDR", ""), "redis address")
	fs.StringVar(&redisPass, "redis-password", envOr("REDIS_PASSWORD", ""), "redis password")
	fs.IntVar(&redisDB, "redis-db", 0, "redis database")
	fs.DurationVar(&ttl, "ttl", 0, "expiry of the mirrored owners, 0 keeps them")
	fs.DurationVar(&timeout, "connect-timeout", 30*time.Second, "time allowed to reach redis")
	fs.BoolVarP(&verbose, "verbose", "v", false, "log progress")
	return cmd
}
