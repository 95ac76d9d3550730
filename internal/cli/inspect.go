package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/finalbiome/finalbiome-impex/internal/gamespec"
	"github.com/finalbiome/finalbiome-impex/internal/replay"
	"github.com/finalbiome/finalbiome-impex/pkg/finalbiome"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

type InspectCmd struct{}

func NewInspectCmd() *InspectCmd {
	return &InspectCmd{}
}

func (c *InspectCmd) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "inspect",
		Short:        "Summarize a game spec file without touching a node",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := cmd.Flags().GetString("game-spec")
			if err != nil {
				return fmt.Errorf("failed to get game-spec flag: %w", err)
			}

			snap, err := gamespec.Load(path)
			if err != nil {
				return err
			}
			if err := replay.Validate(snap); err != nil {
				fmt.Fprintln(os.Stderr, "WARNING:", err)
			}
			renderSnapshot(os.Stdout, snap)
			return nil
		},
	}

	cmd.Flags().StringP("game-spec", "g", defaultGameSpecPath, "Path of the game spec file to read")

	return cmd
}

func renderSnapshot(w io.Writer, snap *gamespec.Snapshot) {
	fmt.Fprintln(w, "Organization:", snap.OrganizationDetails.Name.String())
	fmt.Fprintln(w, "Node version:", snap.Version)
	fmt.Fprintln(w, "State version:", snap.StateVersion.Hex())
	fmt.Fprintln(w, "Members:", len(snap.OrganizationMembers))

	if len(snap.FungibleAssets) > 0 {
		fmt.Fprintln(w)
		table := newTable(w, []string{"ID", "Name", "Supply", "Accounts", "Top Up\nSpeed", "Cup\nGlobal", "Cup\nLocal"})
		for _, id := range snap.FungibleAssetIDs() {
			fa := snap.FungibleAssets[id]
			row := []string{fmt.Sprintf("%d", id), fa.Name.String(), fa.Supply.String(), fmt.Sprintf("%d", fa.Accounts), "-", "-", "-"}
			if fa.TopUpped != nil {
				row[4] = fa.TopUpped.Speed.String()
			}
			if fa.CupGlobal != nil {
				row[5] = fa.CupGlobal.Amount.String()
			}
			if fa.CupLocal != nil {
				row[6] = fa.CupLocal.Amount.String()
			}
			table.Append(row)
		}
		table.Render()
	}

	if len(snap.NonFungibleClasses) > 0 {
		fmt.Fprintln(w)
		table := newTable(w, []string{"ID", "Name", "Instances", "Attributes", "Bettor", "Offers"})
		for _, id := range snap.NonFungibleClassIDs() {
			class := snap.NonFungibleClasses[id]
			keys := make([]string, 0)
			for _, a := range snap.AttributesOf(id) {
				keys = append(keys, a.Key.String())
			}
			bettor, offers := "-", "-"
			if class.Bettor != nil {
				bettor = fmt.Sprintf("%d outcomes, %d rounds", len(class.Bettor.Outcomes), class.Bettor.Rounds)
			}
			if class.Purchased != nil {
				offers = describeOffers(class.Purchased.Offers)
			}
			table.Append([]string{
				fmt.Sprintf("%d", id),
				class.Name.String(),
				fmt.Sprintf("%d", class.Instances),
				strings.Join(keys, "\n"),
				bettor,
				offers,
			})
		}
		table.Render()
	}
}

func describeOffers(offers []finalbiome.Offer) string {
	lines := make([]string, 0, len(offers))
	for _, o := range offers {
		lines = append(lines, fmt.Sprintf("%s of FA %d", o.Price.String(), o.FA))
	}
	return strings.Join(lines, "\n")
}

func newTable(w io.Writer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_CENTER)
	table.SetAutoFormatHeaders(false)
	table.SetBorder(true)
	table.SetRowLine(true)
	table.SetHeader(header)
	return table
}
