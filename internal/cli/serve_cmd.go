package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/S3OPS/autoflight/internal/server"
)

func newServeCmd(root *Root) *cobra.Command {
	var host string
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the stitching API and web interface",
		Long: `Start the HTTP gateway: an upload-and-stitch JSON API at /api/stitch, a
run-history listing at /api/runs, a websocket run-event stream at /ws, and
an embedded single-page front end at /.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			addr := fmt.Sprintf("%s:%d", host, port)
			srv := server.New(addr, root.engine, root.controller, root.store, root.log)
			fmt.Printf("Autoflight web interface running at http://%s\n", addr)
			return srv.Start(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&host, "host", root.cfg.Server.Host, "hostname to bind to")
	cmd.Flags().IntVar(&port, "port", root.cfg.Server.Port, "TCP port to listen on")
	return cmd
}
