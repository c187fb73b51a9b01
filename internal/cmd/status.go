// SPDX-License-Identifier: AGPL-3.0-or-later
// iaxcore - an IAX2 voice conferencing bridge
// Copyright (C) 2023-2026 Jacob McSwain
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

package cmd

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// statusRosterEntry mirrors internal/bridge.RosterEntry's JSON shape.
// status dials the metrics HTTP endpoint rather than importing
// internal/bridge directly, since it has no business touching a live
// Bridge and the wire contract is plain JSON either way.
type statusRosterEntry struct {
	BusID      uint32    `json:"busId"`
	CallID     uint32    `json:"callId"`
	NodeNumber string    `json:"nodeNumber"`
	Mode       string    `json:"mode"`
	JoinedAt   time.Time `json:"joinedAt"`
}

func newStatusCommand() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the active call roster of a running iaxcore process",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runStatus(addr)
		},
	}
	cmd.Flags().StringVar(&addr, "metrics-addr", "http://127.0.0.1:9465", "address of the running process's metrics server")
	return cmd
}

func runStatus(addr string) error {
	client := http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(addr + "/roster")
	if err != nil {
		return fmt.Errorf("dial metrics endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("metrics endpoint returned %s", resp.Status)
	}

	var entries []statusRosterEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return fmt.Errorf("decode roster response: %w", err)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetColWidth(20)
	table.SetHeader([]string{"bus", "call", "node", "mode", "joined"})
	for _, e := range entries {
		table.Append([]string{
			fmt.Sprintf("%d", e.BusID),
			fmt.Sprintf("%d", e.CallID),
			e.NodeNumber,
			e.Mode,
			e.JoinedAt.Format(time.RFC3339),
		})
	}
	table.Render()

	return nil
}
