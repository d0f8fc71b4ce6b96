package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"sui-wallet-go/internal/config"
	"sui-wallet-go/internal/keystore"
	"sui-wallet-go/internal/logger"
	"sui-wallet-go/internal/metrics"
	"sui-wallet-go/internal/signer"
	"sui-wallet-go/internal/sui"
	"sui-wallet-go/internal/wallet"
	"sui-wallet-go/pkg/address"
	"sui-wallet-go/pkg/intent"
	"sui-wallet-go/pkg/keypair"
	"sui-wallet-go/pkg/signature"
	"sui-wallet-go/pkg/utils"
)

const Version = "0.3.0"

// CLI flags
var (
	configFile = flag.String("config", "", "Path to config file")
	envFile    = flag.String("env", "", "Path to .env file")
	network    = flag.String("network", "", "Network to use (mainnet/testnet/devnet/localnet)")
	rpcURL     = flag.String("rpc", "", "Fullnode JSON-RPC URL, overrides -network")
	derivPath  = flag.String("path", "", "Derivation path, e.g. m/44'/784'/0'/0'/0'")
	logLevel   = flag.String("log-level", "", "Log level (debug/info/warn/error)")
)

const usage = `Usage: wallet [flags] <command> [command flags]

Commands:
  generate         create a new mnemonic and print its address
  address          print the configured wallet's address
  sign             sign base64 transaction bytes (-tx)
  verify           verify a serialized signature (-sig) over transaction bytes (-tx)
  keystore-import  encrypt the configured mnemonic into a keystore file (-out)
  balance          print the SUI balance of the configured wallet
  coins            list the configured wallet's SUI coins
  transfer-sui     transfer SUI (-coin, -to, -amount in MIST or -sui)
  watch            stream effects of transactions sent by the configured wallet

Flags:
`

// App holds what every command needs
type App struct {
	config  *config.Config
	logger  *logger.Logger
	metrics *metrics.Metrics
	audit   *logger.AuditLogger
}

func main() {
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := loadConfigurationWithOverrides()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := initializeLogger(cfg)
	defer log.Close()

	app, err := NewApp(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to create application")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Metrics.Enabled {
		go func() {
			if err := app.metrics.Serve(ctx, cfg.Metrics.Port, log.Logger); err != nil {
				log.LogError("metrics", "serve", err, nil)
			}
		}()
	}

	log.LogStartup(Version, cfg.Network, cfg.RPCUrl)
	err = app.Run(ctx, flag.Arg(0), flag.Args()[1:])
	if app.audit != nil {
		app.audit.LogSummary()
	}
	if err != nil {
		log.WithError(err).Error("Command failed")
		os.Exit(1)
	}
	log.LogShutdown("command completed")
}

func loadConfigurationWithOverrides() (*config.Config, error) {
	// flags are applied as environment overrides so LoadConfig validates them
	overrides := map[string]string{
		"SUIWALLET_NETWORK":                *network,
		"SUIWALLET_RPC_URL":                *rpcURL,
		"SUIWALLET_WALLET_DERIVATION_PATH": *derivPath,
		"SUIWALLET_LOGGING_LEVEL":          *logLevel,
	}
	for key, value := range overrides {
		if value != "" {
			if err := os.Setenv(key, value); err != nil {
				return nil, err
			}
		}
	}
	// a network switch without an explicit URL must not keep a file's rpc_url
	if *network != "" && *rpcURL == "" {
		if err := os.Setenv("SUIWALLET_RPC_URL", config.GetRPCEndpoint(*network)); err != nil {
			return nil, err
		}
	}

	return config.LoadConfig(*configFile, *envFile)
}

func initializeLogger(cfg *config.Config) *logger.Logger {
	log, err := logger.NewLogger(logger.LogConfig{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		LogToFile:   cfg.Logging.LogToFile,
		LogFilePath: cfg.Logging.LogFilePath,
		AuditLogDir: cfg.Logging.AuditLogDir,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	return log
}

// NewApp wires metrics and the optional audit log
func NewApp(cfg *config.Config, log *logger.Logger) (*App, error) {
	app := &App{
		config:  cfg,
		logger:  log,
		metrics: metrics.NewMetrics(),
	}

	if cfg.Logging.AuditLogDir != "" {
		audit, err := logger.NewAuditLogger(cfg.Logging.AuditLogDir, log)
		if err != nil {
			return nil, fmt.Errorf("failed to create audit logger: %w", err)
		}
		app.audit = audit
	}

	return app, nil
}

// Run dispatches one command
func (app *App) Run(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "generate":
		return app.generate(args)
	case "address":
		return app.withKeyPair(func(kp *keypair.KeyPair) error {
			fmt.Println(kp.Address())
			return nil
		})
	case "sign":
		return app.sign(args)
	case "verify":
		return app.verify(args)
	case "keystore-import":
		return app.keystoreImport(args)
	case "balance":
		return app.withWallet(func(w *wallet.Wallet) error {
			bal, err := w.GetBalanceSUI(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("%s SUI\n", bal)
			return nil
		})
	case "coins":
		return app.withWallet(func(w *wallet.Wallet) error {
			coins, err := w.GetCoins(ctx, sui.SuiCoinType)
			if err != nil {
				return err
			}
			for _, c := range coins {
				fmt.Printf("%s  %s MIST\n", c.CoinObjectID, c.Balance)
			}
			return nil
		})
	case "transfer-sui":
		return app.transferSui(ctx, args)
	case "watch":
		return app.watch(ctx)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func (app *App) signerOptions() []signer.Option {
	opts := []signer.Option{signer.WithMetrics(app.metrics)}
	if app.audit != nil {
		opts = append(opts, signer.WithAuditLog(app.audit))
	}
	return opts
}

func (app *App) withKeyPair(fn func(kp *keypair.KeyPair) error) error {
	kp, source, err := wallet.LoadKeyPair(app.config.Wallet)
	if err != nil {
		return err
	}
	defer kp.Destroy()

	app.logger.LogWalletLoaded(kp.Address().String(), kp.Scheme().String(), source)
	return fn(kp)
}

func (app *App) withWallet(fn func(w *wallet.Wallet) error) error {
	client := sui.NewClient(sui.ClientConfig{
		Endpoint: app.config.RPCUrl,
		Timeout:  app.config.GetRPCTimeout(),
		Metrics:  app.metrics,
	}, app.logger.Logger)

	w, err := wallet.NewWallet(app.config, client, app.logger, app.signerOptions()...)
	if err != nil {
		return fmt.Errorf("failed to create wallet: %w", err)
	}
	defer w.Close()

	return fn(w)
}

func (app *App) generate(args []string) error {
	fs := flag.NewFlagSet("generate", flag.ContinueOnError)
	words := fs.Int("words", app.config.Wallet.WordCount, "Number of words (12, 15, 18, 21 or 24)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	kp, phrase, err := keypair.Generate(*words, app.config.Wallet.DerivationPath)
	if err != nil {
		return fmt.Errorf("failed to generate wallet: %w", err)
	}
	defer kp.Destroy()

	fmt.Printf("Mnemonic:   %s\n", phrase)
	fmt.Printf("Address:    %s\n", kp.Address())
	fmt.Printf("Public key: %s\n", kp.PublicKeyBase64())
	fmt.Printf("            %s\n", utils.EncodeHex(kp.PublicKey()))
	fmt.Printf("Path:       %s\n", app.config.Wallet.DerivationPath)
	return nil
}

func (app *App) sign(args []string) error {
	fs := flag.NewFlagSet("sign", flag.ContinueOnError)
	txFlag := fs.String("tx", "", "Transaction bytes (base64, or hex with 0x prefix)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	tx, err := utils.DecodeDataString(*txFlag)
	if err != nil {
		return fmt.Errorf("invalid -tx: %w", err)
	}
	if len(tx) == 0 {
		return errors.New("-tx is required")
	}

	return app.withKeyPair(func(kp *keypair.KeyPair) error {
		s := signer.New(kp, app.logger, app.signerOptions()...)
		wire, err := s.SignTransaction(tx)
		if err != nil {
			return err
		}
		fmt.Printf("Signature: %s\n", wire)
		fmt.Printf("Digest:    %s\n", intent.TransactionDigest(tx))
		return nil
	})
}

func (app *App) verify(args []string) error {
	fs := flag.NewFlagSet("verify", flag.ContinueOnError)
	sigFlag := fs.String("sig", "", "Serialized signature (base64 flag||sig||pubkey)")
	txFlag := fs.String("tx", "", "Transaction bytes (base64, or hex with 0x prefix)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	tx, err := utils.DecodeDataString(*txFlag)
	if err != nil {
		return fmt.Errorf("invalid -tx: %w", err)
	}

	parts, err := signature.Deserialize(signature.Serialized(*sigFlag))
	if err != nil {
		return err
	}

	digest := intent.HashTransaction(tx)
	ok, err := parts.Verify(digest[:])
	if err != nil {
		return err
	}

	signerAddr, err := address.Derive(parts.PublicKey, parts.Scheme)
	if err != nil {
		return err
	}

	fmt.Printf("Scheme:  %s\n", parts.Scheme)
	fmt.Printf("Signer:  %s\n", signerAddr)
	fmt.Printf("Valid:   %t\n", ok)
	if !ok {
		return errors.New("signature does not match transaction")
	}
	return nil
}

func (app *App) keystoreImport(args []string) error {
	fs := flag.NewFlagSet("keystore-import", flag.ContinueOnError)
	out := fs.String("out", app.config.Wallet.KeystorePath, "Keystore file to write")
	if err := fs.Parse(args); err != nil {
		return err
	}

	w := app.config.Wallet
	switch {
	case *out == "":
		return errors.New("keystore path is required (-out or wallet.keystore_path)")
	case w.Mnemonic == "":
		return errors.New("wallet.mnemonic must be set to import")
	case w.KeystorePassword == "":
		return errors.New("wallet.keystore_password must be set to import")
	}

	addr, err := keystore.Save(*out, w.KeystorePassword, w.Mnemonic, w.Passphrase, w.DerivationPath)
	if err != nil {
		return fmt.Errorf("failed to import keystore: %w", err)
	}

	app.logger.WithField("path", *out).Info("Keystore written")
	fmt.Println(addr)
	return nil
}

func (app *App) transferSui(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("transfer-sui", flag.ContinueOnError)
	coin := fs.String("coin", "", "SUI coin object id to pay from")
	to := fs.String("to", "", "Recipient address")
	amount := fs.Uint64("amount", 0, "Amount in MIST (0 transfers the whole coin)")
	suiAmount := fs.Float64("sui", 0, "Amount in SUI, instead of -amount")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *coin == "" || *to == "" {
		return errors.New("-coin and -to are required")
	}
	if *suiAmount < 0 {
		return errors.New("-sui must not be negative")
	}
	if *suiAmount > 0 {
		if *amount != 0 {
			return errors.New("use either -amount or -sui")
		}
		*amount = utils.ConvertSUIToMist(*suiAmount)
	}

	return app.withWallet(func(w *wallet.Wallet) error {
		resp, err := w.TransferSui(ctx, *coin, *to, *amount)
		if err != nil {
			return err
		}
		fmt.Printf("Digest: %s\n", resp.Digest)
		if resp.Effects != nil {
			fmt.Printf("Status: %s\n", resp.Effects.Status.Status)
		}
		return nil
	})
}

func (app *App) watch(ctx context.Context) error {
	wsURL := app.config.WSUrl
	if wsURL == "" {
		var err error
		if wsURL, err = sui.WebsocketURL(app.config.RPCUrl); err != nil {
			return err
		}
	}

	ws, err := sui.DialWS(ctx, wsURL, app.logger.Logger)
	if err != nil {
		return err
	}
	defer ws.Close()

	return app.withWallet(func(w *wallet.Wallet) error {
		app.logger.WithField("address", w.Address().String()).Info("Watching transactions, Ctrl+C to stop")
		err := w.WatchTransactions(ctx, ws, func(effects json.RawMessage) error {
			fmt.Println(string(effects))
			return nil
		})
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
}
