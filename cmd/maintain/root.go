package maintain

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ValentinKolb/sKV/cmd/util"
	"github.com/ValentinKolb/sKV/lib/store"
	"github.com/ValentinKolb/sKV/lib/sweep"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	log = logger.GetLogger("cmd")

	MaintainCmd = &cobra.Command{
		Use:   "maintain",
		Short: "Run the maintenance sweep of an sKV database",
		Long: `Open the database, signal readiness and sweep the reserved table periodically until the process is stopped.
The configuration can be set via command line flags or environment variables. The format of the environment variables is SKV_<flag> (e.g. SKV_SWEEP_INTERVAL=30m)`,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return util.BindCommandFlags(cmd)
		},
		RunE: run,
	}
)

func init() {
	// initialize viper
	cobra.OnInitialize(util.InitConfig)

	// add flags
	util.SetupStoreFlags(MaintainCmd)

	key := "once"
	MaintainCmd.Flags().Bool(key, false, util.WrapString("Run a single sweep and exit"))

	key = "stats-interval"
	MaintainCmd.Flags().Duration(key, time.Minute, util.WrapString("Interval at which ping and database statistics are logged (0 disables)"))
}

// run opens the store and runs the sweep until SIGINT or SIGTERM
func run(_ *cobra.Command, _ []string) error {
	s, conf, err := util.OpenStore()
	if err != nil {
		// a store that can not be opened is fatal
		log.Errorf("failed to initialize: %v", err)
		os.Exit(1)
	}
	defer func() {
		if err := s.Close(); err != nil {
			log.Errorf("failed to close store: %v", err)
		}
	}()

	scheduler := sweep.NewScheduler(s, sweep.ExpiredResidue, conf.SweepInterval)

	if viper.GetBool("once") {
		removed, err := scheduler.RunOnce()
		if err != nil {
			return err
		}
		fmt.Printf("removed %d rows\n", removed)
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ready := make(chan struct{})
	scheduler.StartOn(ready)
	defer scheduler.Stop()

	// the store is ready once the engine answers
	if _, err := s.Ping(); err != nil {
		return err
	}
	close(ready)

	logStats(ctx, s, scheduler, viper.GetDuration("stats-interval"))

	log.Infof("shutting down after %d sweeps (%d rows removed)", scheduler.Runs(), scheduler.Removed())
	return nil
}

// logStats logs ping and database statistics every interval until ctx is done
func logStats(ctx context.Context, s store.IStore, scheduler *sweep.Scheduler, interval time.Duration) {
	if interval <= 0 {
		<-ctx.Done()
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			elapsed, err := s.Ping()
			if err != nil {
				log.Warningf("ping failed: %v", err)
				continue
			}
			info, _ := s.GetDBInfo()
			log.Infof("ping %s (avg %s), size %d bytes, %d sweeps, %d rows removed",
				elapsed, s.AvgPing(), info.SizeBytes, scheduler.Runs(), scheduler.Removed())
		}
	}
}
