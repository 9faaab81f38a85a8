package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/theirongolddev/subtrack/internal/cli"

	"github.com/spf13/cobra"
)

var flagRmYes bool

var rmCmd = &cobra.Command{
	Use:     "rm <id|name>",
	Aliases: []string{"delete"},
	Short:   "Delete a subscription",
	Args:    cobra.ExactArgs(1),
	RunE:    runRm,
}

func init() {
	rmCmd.Flags().BoolVarP(&flagRmYes, "yes", "y", false, "Don't ask for confirmation")
	rootCmd.AddCommand(rmCmd)
}

func runRm(_ *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer closeApp(a)

	sub, err := a.Store.Find(args[0])
	if err != nil {
		return err
	}

	if !flagRmYes {
		fmt.Printf("  Delete %s (%s)? [y/N] ", sub.Name, cli.ShortID(sub.ID))
		answer, _ := bufio.NewReader(os.Stdin).ReadString('\n')
		if ans := strings.ToLower(strings.TrimSpace(answer)); ans != "y" && ans != "yes" {
			fmt.Println("  Cancelled.")
			return nil
		}
	}

	a.Store.Delete(sub.ID)
	info("  Deleted %s\n", sub.Name)
	return nil
}
