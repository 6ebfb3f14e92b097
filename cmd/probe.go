package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/khanhnv2901/seca-recon/internal/checker"
	sharederrors "github.com/khanhnv2901/seca-recon/internal/shared/errors"
	"github.com/khanhnv2901/seca-recon/internal/validate"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const maxScanPorts = 4096

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Run a single probe locally, without the API",
	Long: `Run the same validators and probes the API exposes, directly from the CLI.

Only probe hosts you are authorized to test.`,
}

var probeWebsiteCmd = &cobra.Command{
	Use:   "website <url>",
	Short: "Fetch a URL once and report its status",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := probeOptionsFrom(cmd)
		target := args[0]
		if !opts.AllowInternal {
			if out := validate.ValidateURL(target); !out.Valid {
				return validationFailure(out)
			}
		}

		result := opts.engine(cmd).CheckWebsite(cmd.Context(), target)
		if opts.JSON {
			return writeJSONOutput(cmd.OutOrStdout(), result)
		}
		printWebsiteResult(cmd.OutOrStdout(), result)
		return nil
	},
}

var probePortCmd = &cobra.Command{
	Use:   "port <host> <port>",
	Short: "Check whether a TCP port accepts connections",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := probeOptionsFrom(cmd)
		host, port, err := hostPortArgs(cmd, args, opts.AllowInternal)
		if err != nil {
			return err
		}

		result := opts.engine(cmd).CheckPort(cmd.Context(), host, port)
		if opts.JSON {
			return writeJSONOutput(cmd.OutOrStdout(), result)
		}
		printPortResult(cmd.OutOrStdout(), result)
		return nil
	},
}

var probeBannerCmd = &cobra.Command{
	Use:   "banner <host> <port>",
	Short: "Read the first bytes a service sends back",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := probeOptionsFrom(cmd)
		host, port, err := hostPortArgs(cmd, args, opts.AllowInternal)
		if err != nil {
			return err
		}

		result := opts.engine(cmd).GrabBanner(cmd.Context(), host, port)
		if opts.JSON {
			return writeJSONOutput(cmd.OutOrStdout(), result)
		}
		printBannerResult(cmd.OutOrStdout(), result)
		return nil
	},
}

var probeScanCmd = &cobra.Command{
	Use:   "scan <host>",
	Short: "Check a list of TCP ports on one host",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := probeOptionsFrom(cmd)
		host := args[0]
		if !opts.AllowInternal {
			if out := validate.ValidateHostname(host); !out.Valid {
				return validationFailure(out)
			}
		}

		portSpec, _ := cmd.Flags().GetString("ports")
		concurrency, _ := cmd.Flags().GetInt("concurrency")
		rateLimit, _ := cmd.Flags().GetInt("rate")
		showProgress, _ := cmd.Flags().GetBool("progress")

		ports, err := parsePortList(portSpec, validatorFor(cmd))
		if err != nil {
			return err
		}

		runner := &checker.Runner{Concurrency: concurrency, RateLimit: rateLimit}

		var onResult checker.ResultFunc
		var progress *progressPrinter
		if showProgress && !opts.JSON {
			progress = newProgressPrinter(cmd.OutOrStdout(), len(ports), "scan")
			progress.Start()
			onResult = func(r checker.PortResult) { progress.Increment(r.Status) }
		}

		start := time.Now()
		results := runner.ScanPorts(cmd.Context(), opts.engine(cmd), host, ports, onResult)
		if progress != nil {
			progress.Stop()
		}

		if opts.JSON {
			return writeJSONOutput(cmd.OutOrStdout(), results)
		}
		printScanResults(cmd.OutOrStdout(), host, results, time.Since(start))
		return nil
	},
}

func init() {
	probeCmd.PersistentFlags().Bool("json", false, "Print the raw result as JSON")
	probeCmd.PersistentFlags().Bool("allow-internal", false, "Skip the internal-network checks (authorized internal testing only)")

	probeScanCmd.Flags().String("ports", "21,22,23,25,53,80,110,143,443,445,3306,3389,5432,5900,6379,8080,8443,27017", "Ports to check: comma list and ranges, e.g. 22,80,8000-8100")
	probeScanCmd.Flags().Int("concurrency", 10, "Concurrent port checks")
	probeScanCmd.Flags().Int("rate", 0, "Port checks per second (0 = unlimited)")
	probeScanCmd.Flags().Bool("progress", false, "Show live progress")

	probeCmd.AddCommand(probeWebsiteCmd, probePortCmd, probeBannerCmd, probeScanCmd)
}

type probeOptions struct {
	JSON          bool
	AllowInternal bool
}

func probeOptionsFrom(cmd *cobra.Command) probeOptions {
	asJSON, _ := cmd.Flags().GetBool("json")
	allowInternal, _ := cmd.Flags().GetBool("allow-internal")
	return probeOptions{JSON: asJSON, AllowInternal: allowInternal}
}

// engine builds an Engine from the loaded configuration. --allow-internal
// also turns off the dial-time destination guard.
func (o probeOptions) engine(cmd *cobra.Command) *checker.Engine {
	cfg := checker.Config{Logger: zap.NewNop()}
	blockPrivate := true
	if appCtx := getAppContext(cmd); appCtx != nil && appCtx.Config != nil {
		cfg.SocketTimeout = appCtx.Config.SocketTimeout
		cfg.HTTPTimeout = appCtx.Config.HTTPTimeout
		blockPrivate = appCtx.Config.BlockPrivateDestinations
		if appCtx.Logger != nil {
			cfg.Logger = appCtx.Logger
		}
	}
	cfg.BlockPrivate = blockPrivate && !o.AllowInternal
	return checker.NewEngine(cfg)
}

func validatorFor(cmd *cobra.Command) validate.Validator {
	if appCtx := getAppContext(cmd); appCtx != nil && appCtx.Config != nil {
		return validate.Validator{MinPort: appCtx.Config.MinPort, MaxPort: appCtx.Config.MaxPort}
	}
	return validate.Default
}

func validationFailure(out validate.Outcome) error {
	return fmt.Errorf("%w: %s", sharederrors.ErrValidation, out.Reason)
}

func hostPortArgs(cmd *cobra.Command, args []string, allowInternal bool) (string, int, error) {
	host := args[0]
	if !allowInternal {
		if out := validate.ValidateHostname(host); !out.Valid {
			return "", 0, validationFailure(out)
		}
	}
	port, err := validate.ParsePort(args[1])
	if err != nil {
		return "", 0, fmt.Errorf("%w: %s", sharederrors.ErrValidation, err.Error())
	}
	if out := validatorFor(cmd).ValidatePort(port); !out.Valid {
		return "", 0, validationFailure(out)
	}
	return host, port, nil
}

// parsePortList expands "22,80,8000-8010" into a sorted, de-duplicated list.
func parsePortList(spec string, v validate.Validator) ([]int, error) {
	seen := make(map[int]struct{})
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		lo, hi := part, part
		if a, b, ok := strings.Cut(part, "-"); ok {
			lo, hi = strings.TrimSpace(a), strings.TrimSpace(b)
		}
		start, err := strconv.Atoi(lo)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", sharederrors.ErrInvalidPortArg, part)
		}
		end, err := strconv.Atoi(hi)
		if err != nil || end < start {
			return nil, fmt.Errorf("%w: %q", sharederrors.ErrInvalidPortArg, part)
		}
		for _, p := range []int{start, end} {
			if out := v.ValidatePort(p); !out.Valid {
				return nil, fmt.Errorf("%w: %s", sharederrors.ErrInvalidPortArg, out.Reason)
			}
		}
		if end-start+1 > maxScanPorts {
			return nil, fmt.Errorf("%w: range %q exceeds %d ports", sharederrors.ErrInvalidPortArg, part, maxScanPorts)
		}
		for p := start; p <= end; p++ {
			seen[p] = struct{}{}
		}
	}

	if len(seen) == 0 {
		return nil, fmt.Errorf("%w: no ports given", sharederrors.ErrInvalidPortArg)
	}
	if len(seen) > maxScanPorts {
		return nil, fmt.Errorf("%w: more than %d ports", sharederrors.ErrInvalidPortArg, maxScanPorts)
	}

	ports := make([]int, 0, len(seen))
	for p := range seen {
		ports = append(ports, p)
	}
	sort.Ints(ports)
	return ports, nil
}

func writeJSONOutput(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printWebsiteResult(w io.Writer, r checker.WebsiteResult) {
	line := fmt.Sprintf("%s %s", r.URL, formatStatusWithColor(r.Message))
	if r.StatusCode != nil && r.Message != checker.MessageOnline {
		line = fmt.Sprintf("%s %s", r.URL, colorWarn(r.Message))
	}
	if r.Error != nil {
		line += " - " + *r.Error
	}
	fmt.Fprintln(w, line)
}

func printPortResult(w io.Writer, r checker.PortResult) {
	line := fmt.Sprintf("%s:%d (%s) %s", r.Host, r.Port, checker.ServiceName(r.Port), formatStatusWithColor(r.Status))
	if r.Error != nil {
		line += " - " + *r.Error
	}
	fmt.Fprintln(w, line)
}

func printBannerResult(w io.Writer, r checker.BannerResult) {
	if r.Banner == nil {
		msg := "unknown error"
		if r.Error != nil {
			msg = *r.Error
		}
		fmt.Fprintf(w, "%s:%d %s - %s\n", r.Host, r.Port, formatStatusWithColor(checker.StatusError), msg)
		return
	}
	fmt.Fprintf(w, "%s:%d %s\n%s\n", r.Host, r.Port, colorInfo("banner:"), strings.TrimRight(*r.Banner, "\r\n"))
}

func printScanResults(w io.Writer, host string, results []checker.PortResult, elapsed time.Duration) {
	open := 0
	fmt.Fprintf(w, "%-7s %-12s %-8s %s\n", "PORT", "SERVICE", "RISK", "STATUS")
	for _, r := range results {
		risk := "-"
		if r.Status == checker.StatusOpen {
			open++
			risk = checker.PortRisk(r.Port)
		}
		line := fmt.Sprintf("%-7d %-12s %-8s %s", r.Port, checker.ServiceName(r.Port), risk, formatStatusWithColor(r.Status))
		if r.Error != nil {
			line += " - " + *r.Error
		}
		fmt.Fprintln(w, line)
	}
	fmt.Fprintf(w, "%s %s: %d/%d open in %s\n", colorInfo("→"), host, open, len(results), elapsed.Round(time.Millisecond))
}
