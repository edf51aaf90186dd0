package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"lateral-torque-core/nnff"
	"lateral-torque-core/utils"
)

var (
	paramsPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "lateral-loop",
	Short: "Feedforward steering torque control over SocketCAN",
	Long:  "Closed-loop lateral controller. Tracks a planned lateral acceleration profile with an analytic or learned feedforward plus a torque PID, talking to the vehicle over SocketCAN.",
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the control loop against a scenario",
	Run:   runLoop,
}

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Inspect the torque model store",
}

var modelsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List models in the store",
	Run:   runModelsList,
}

var modelsMatchCmd = &cobra.Command{
	Use:   "match",
	Short: "Show which model the configured car would load",
	Run:   runModelsMatch,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&paramsPath, "params", "config/car_params.yaml", "Path to car_params.yaml")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "info", "trace|debug|info|warn|error|critical")

	runCmd.Flags().String("iface", "vcan0", "SocketCAN interface name")
	runCmd.Flags().String("map", "", "Path to can_map.csv (builtin lateral map when empty)")
	runCmd.Flags().String("scenario", "lateral_loop/lane_change_30s.json", "Scenario JSON file")
	runCmd.Flags().String("db", "", "SQLite drive log path (recording off when empty)")
	runCmd.Flags().String("mqtt", "", "MQTT broker URL for telemetry (off when empty)")

	modelsCmd.AddCommand(modelsListCmd)
	modelsCmd.AddCommand(modelsMatchCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(modelsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runLoop(cmd *cobra.Command, args []string) {
	iface, _ := cmd.Flags().GetString("iface")
	mapPath, _ := cmd.Flags().GetString("map")
	scenPath, _ := cmd.Flags().GetString("scenario")
	dbPath, _ := cmd.Flags().GetString("db")
	broker, _ := cmd.Flags().GetString("mqtt")

	log, err := utils.NewFileLogger("lateral_loop.log", utils.ParseLevel(logLevel), true)
	if err != nil {
		_, _ = os.Stderr.WriteString("ERROR: cannot open lateral_loop.log: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer log.Close()

	cfg := RunnerConfig{
		Interface:    iface,
		ParamsPath:   paramsPath,
		MapPath:      mapPath,
		ScenarioPath: scenPath,
		DBPath:       dbPath,
		MQTTBroker:   broker,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runner, err := NewRunner(ctx, cfg, log)
	if err != nil {
		log.Critical("Startup failed: %v", err)
		os.Exit(1)
	}
	defer runner.Close()

	if err := runner.Run(ctx); err != nil && err != context.Canceled {
		log.Critical("Run failed: %v", err)
		os.Exit(1)
	}
}

func runModelsList(cmd *cobra.Command, args []string) {
	params, err := utils.LoadCarParams(paramsPath)
	if err != nil {
		exitErr("load car params", err)
	}
	names, err := nnff.NewStore(params.Models.Dir).ListModels()
	if err != nil {
		exitErr("list models", err)
	}
	for _, name := range names {
		fmt.Println(name)
	}
}

func runModelsMatch(cmd *cobra.Command, args []string) {
	params, err := utils.LoadCarParams(paramsPath)
	if err != nil {
		exitErr("load car params", err)
	}
	store := nnff.NewStore(params.Models.Dir)
	match, err := store.FindModel(params.Car.Fingerprint, params.Car.EPSFirmware)
	if err != nil {
		exitErr("find model", err)
	}
	if match == nil {
		fmt.Printf("No torque model for %s; the analytic feedforward would be used\n", params.Car.Fingerprint)
		return
	}
	kind := fmt.Sprintf("Fuzzy (score=%.3f)", match.Similarity)
	if match.Exact {
		kind = "Exact"
	}
	fmt.Printf("Torque model: %s | Match = %s | %s\n", match.Name, kind, match.Path)
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
