package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/ishaan812/mdsum/internal/config"
	"github.com/ishaan812/mdsum/internal/constants"
)

var errSetupCanceled = errors.New("setup canceled")

var (
	setProvider string
	setModel    string
	setAPIKey   string
	setBaseURL  string
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Show or change the summarization model",
	Long: `Show the provider and model used for summaries, list the choices, or
change them.

Examples:
  mdsum models                      # Current provider and model
  mdsum models list                 # Every provider with its models
  mdsum models set                  # Guided setup
  mdsum models set --provider ollama --model qwen3`,
	RunE: runModelsShow,
}

var modelsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List providers and their models",
	RunE:  runModelsList,
}

var modelsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Choose provider, model and credentials",
	Long: `Set the provider, model and API key. Without flags a guided prompt
asks for each in turn.`,
	RunE: runModelsSet,
}

func init() {
	rootCmd.AddCommand(modelsCmd)
	modelsCmd.AddCommand(modelsListCmd, modelsSetCmd)

	f := modelsSetCmd.Flags()
	f.StringVar(&setProvider, "provider", "", "provider: "+strings.Join(constants.ProviderIDs(), ", "))
	f.StringVar(&setModel, "model", "", "model name")
	f.StringVar(&setAPIKey, "api-key", "", "API key (AWS access key ID for bedrock)")
	f.StringVar(&setBaseURL, "base-url", "", "endpoint for ollama or an OpenAI-compatible gateway")
}

func runModelsShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	label := color.New(color.FgHiGreen)
	value := color.New(color.FgHiWhite)
	dim := color.New(color.FgHiBlack)

	provider := cfg.GetProvider()
	info, _ := constants.Lookup(provider)

	fmt.Println()
	color.New(color.FgHiCyan, color.Bold).Println("  Summarization model")
	fmt.Println()
	label.Print("  Provider  ")
	value.Println(provider)
	label.Print("  Model     ")
	value.Println(cfg.GetModel(provider))
	if info.NeedsAPIKey() {
		label.Print("  Key       ")
		if key := cfg.GetAPIKey(string(provider)); key != "" {
			dim.Println(maskAPIKey(key))
		} else {
			color.New(color.FgHiYellow).Printf("missing (set %s or run 'mdsum models set')\n", info.KeyEnv)
		}
	}
	if url := cfg.GetBaseURL(string(provider)); url != "" {
		label.Print("  Endpoint  ")
		dim.Println(url)
	}
	fmt.Println()
	return nil
}

func runModelsList(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		cfg = config.Default()
	}
	current := cfg.GetProvider()
	accent := color.New(color.FgHiMagenta, color.Bold)
	dim := color.New(color.FgHiBlack)
	ok := color.New(color.FgHiGreen)

	fmt.Println()
	for _, info := range constants.Providers {
		accent.Printf("  %-11s", info.ID)
		dim.Print(info.Description)
		switch {
		case info.ID == current:
			ok.Print("  (active)")
		case cfg.HasProvider(string(info.ID)):
			ok.Print("  (configured)")
		}
		fmt.Println()
		for _, m := range constants.Models(info.ID) {
			fmt.Printf("    %-44s", m.Name)
			dim.Println(m.Note)
		}
		fmt.Println()
	}
	dim.Println("  mdsum models set --provider <name> --model <model>")
	fmt.Println()
	return nil
}

func runModelsSet(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if cmd.Flags().NFlag() == 0 {
		err = setupInteractive(cfg)
	} else {
		err = applyModelFlags(cfg)
	}
	if errors.Is(err, errSetupCanceled) {
		color.New(color.FgHiBlack).Println("  Nothing changed.")
		return nil
	}
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := cfg.Save(); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	color.New(color.FgHiGreen).Printf("  Using %s / %s\n", cfg.DefaultProvider, cfg.GetModel(cfg.GetProvider()))
	color.New(color.FgHiBlack).Printf("  Saved to %s\n", config.GetConfigPath())
	return nil
}

func applyModelFlags(cfg *config.Config) error {
	if setProvider != "" {
		p, ok := constants.ParseProvider(setProvider)
		if !ok {
			return fmt.Errorf("unknown provider %q; run 'mdsum models list'", setProvider)
		}
		switchProvider(cfg, p)
	}
	if setModel != "" {
		cfg.DefaultModel = setModel
	}
	if setAPIKey != "" {
		cfg.SetAPIKey(cfg.DefaultProvider, setAPIKey)
	}
	if setBaseURL != "" && !cfg.SetBaseURL(cfg.DefaultProvider, setBaseURL) {
		return fmt.Errorf("%s does not take a custom endpoint", cfg.DefaultProvider)
	}
	return nil
}

// switchProvider forgets the model of the previous provider.
func switchProvider(cfg *config.Config, p constants.Provider) {
	if string(p) != cfg.DefaultProvider {
		cfg.DefaultModel = ""
	}
	cfg.DefaultProvider = string(p)
}

func setupInteractive(cfg *config.Config) error {
	fmt.Println()
	color.New(color.FgHiCyan, color.Bold).Println("  Model setup")
	fmt.Println()

	info, err := pickProvider()
	if err != nil {
		return err
	}
	switchProvider(cfg, info.ID)

	if err := askCredentials(cfg, info); err != nil {
		return err
	}
	model, err := pickModel(info.ID)
	if err != nil {
		return err
	}
	cfg.DefaultModel = model
	fmt.Println()
	return nil
}

func pickProvider() (constants.ProviderInfo, error) {
	items := make([]string, len(constants.Providers))
	for i, info := range constants.Providers {
		items[i] = fmt.Sprintf("%-11s %s", info.ID, info.Description)
	}
	sel := promptui.Select{Label: "Provider", Items: items, Size: len(items)}
	i, _, err := sel.Run()
	if err != nil {
		return constants.ProviderInfo{}, errSetupCanceled
	}
	return constants.Providers[i], nil
}

func askCredentials(cfg *config.Config, info constants.ProviderInfo) error {
	id := string(info.ID)
	if info.Local {
		url, err := ask(promptui.Prompt{Label: "Server URL", Default: cfg.GetBaseURL(id)})
		if err != nil {
			return err
		}
		cfg.SetBaseURL(id, url)
		return nil
	}

	if info.KeyURL != "" {
		color.New(color.FgHiBlack).Printf("  Keys: %s\n", info.KeyURL)
	}
	existing := cfg.GetAPIKey(id)
	label := "API key"
	if info.ID == constants.ProviderBedrock {
		label = "AWS access key ID"
	}
	if existing != "" {
		label += " (enter keeps " + maskAPIKey(existing) + ")"
	}
	key, err := ask(promptui.Prompt{
		Label:    label,
		Mask:     '*',
		Validate: keyValidator(info.KeyPrefix, existing != ""),
	})
	if err != nil {
		return err
	}
	if key != "" {
		cfg.SetAPIKey(id, key)
	}

	if info.ID == constants.ProviderBedrock {
		secret, err := ask(promptui.Prompt{Label: "AWS secret access key (enter keeps current)", Mask: '*'})
		if err != nil {
			return err
		}
		if secret != "" {
			cfg.AWSSecretAccessKey = secret
		}
		region, err := ask(promptui.Prompt{Label: "AWS region", Default: cfg.AWSRegion})
		if err != nil {
			return err
		}
		if region != "" {
			cfg.AWSRegion = region
		}
	}
	return nil
}

// keyValidator accepts an empty answer only when a key is already stored.
func keyValidator(prefix string, haveKey bool) promptui.ValidateFunc {
	return func(s string) error {
		switch {
		case s == "" && haveKey:
			return nil
		case s == "":
			return errors.New("a key is required")
		case prefix != "" && !strings.HasPrefix(s, prefix):
			return fmt.Errorf("keys for this provider start with %q", prefix)
		}
		return nil
	}
}

func pickModel(p constants.Provider) (string, error) {
	models := constants.Models(p)
	if len(models) == 0 {
		return ask(promptui.Prompt{Label: "Model", Default: constants.DefaultModel(p)})
	}
	items := make([]string, 0, len(models)+1)
	for _, m := range models {
		items = append(items, fmt.Sprintf("%-44s %s", m.Name, m.Note))
	}
	items = append(items, "another model...")
	sel := promptui.Select{Label: "Model", Items: items, Size: min(len(items), 10)}
	i, _, err := sel.Run()
	if err != nil {
		return "", errSetupCanceled
	}
	if i < len(models) {
		return models[i].Name, nil
	}
	return ask(promptui.Prompt{Label: "Model", Validate: func(s string) error {
		if strings.TrimSpace(s) == "" {
			return errors.New("enter a model name")
		}
		return nil
	}})
}

func ask(p promptui.Prompt) (string, error) {
	answer, err := p.Run()
	if err != nil {
		return "", errSetupCanceled
	}
	return strings.TrimSpace(answer), nil
}

// maskAPIKey keeps the first and last four characters.
func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "***"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
