package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/leakprobe/internal/cache"
	"github.com/ppiankov/leakprobe/internal/model"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the verdict cache",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove cached judge verdicts",
	Long: `Clear deletes the on-disk verdict cache (cache.dir), so the next run asks the
judge again for every selected question. The in-memory layer lives only for one run.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(viper.GetViper())
		if err != nil {
			return err
		}
		if err := clearCache(cfg.Cache); err != nil {
			return err
		}
		fmt.Printf("✓ Cleared verdict cache: %s\n", cfg.Cache.Dir)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}

// clearCache empties the configured disk cache
func clearCache(cfg model.CacheConfig) error {
	if cfg.Dir == "" {
		return fmt.Errorf("no cache directory configured (set cache.dir)")
	}
	cfg.Enabled = true
	if err := cache.New(cfg).Clear(); err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}
	return nil
}
