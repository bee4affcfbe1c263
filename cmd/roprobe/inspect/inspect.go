package inspect

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"go.firedancer.io/roprobe/pkg/accounts"
	"go.firedancer.io/roprobe/pkg/base58"
	"go.firedancer.io/roprobe/pkg/util"
	"k8s.io/klog/v2"
)

var Cmd = cobra.Command{
	Use:          "inspect <pubkey>...",
	Short:        "Print accounts persisted by run --accounts-db",
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
	RunE:         run,
}

var accountsDbDir string

func init() {
	Cmd.Flags().StringVar(&accountsDbDir, "accounts-db", "", "Accounts database directory")
	_ = Cmd.MarkFlagRequired("accounts-db")
}

// parsePubkeys decodes args, dropping repeats but keeping argument order.
func parsePubkeys(args []string) ([]solana.PublicKey, error) {
	pubkeys := make([]solana.PublicKey, 0, len(args))
	for _, arg := range args {
		key, err := base58.DecodeFromString(arg)
		if err != nil {
			return nil, fmt.Errorf("invalid pubkey %q: %w", arg, err)
		}
		pubkeys = append(pubkeys, solana.PublicKey(key))
	}
	return lo.Uniq(pubkeys), nil
}

func run(_ *cobra.Command, args []string) error {
	pubkeys, err := parsePubkeys(args)
	if err != nil {
		return err
	}

	db, err := accounts.OpenAccountsDb(accountsDbDir)
	if err != nil {
		return err
	}
	defer db.Close()

	for _, pubkey := range pubkeys {
		pk := [32]byte(pubkey)
		acct, err := db.GetAccount(&pk)
		if errors.Is(err, accounts.ErrAccountNotFound) {
			fmt.Printf("%s: not found\n", pubkey)
			continue
		} else if err != nil {
			return err
		}
		klog.V(2).Infof("loaded %s (%d bytes)", pubkey, len(acct.Data))

		fmt.Printf("%s\n", pubkey)
		fmt.Printf("  owner:      %s\n", acct.Owner)
		fmt.Printf("  lamports:   %d\n", acct.Lamports)
		fmt.Printf("  executable: %t\n", acct.Executable)
		fmt.Printf("  data:       %s\n", hex.EncodeToString(acct.Data))
		fmt.Printf("  hash:       %s\n", hex.EncodeToString(util.CalculateAcctHash(acct)))
	}
	return nil
}
