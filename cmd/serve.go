package cmd

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/Tiliavir/litt/internal/server"
)

// DefaultPort is the port the HTTP API listens on unless --port is given.
const DefaultPort = 9872

func newServeCmd(o *rootOptions) *cobra.Command {
	var (
		host string
		port int
		psk  string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the ledger commands over HTTP",
		Long: `Serve the ledger commands over HTTP for a web or mobile client. Every
request loads, changes and rewrites the ledger like one CLI invocation.
With --preshared-key clients must send "Authorization: Bearer <key>".`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !o.verbose {
				gin.SetMode(gin.ReleaseMode)
			}
			a, err := o.open(cmd)
			if err != nil {
				return err
			}
			srv := server.New(a, server.Options{PresharedKey: psk, Logger: a.Logger})
			return srv.Run(fmt.Sprintf("%s:%d", host, port))
		},
	}
	cmd.Flags().StringVar(&host, "host", "127.0.0.1", "Address to listen on")
	cmd.Flags().IntVarP(&port, "port", "p", DefaultPort, "Port to serve the API on")
	cmd.Flags().StringVarP(&psk, "preshared-key", "k", "", "Pre-shared key clients must present as a bearer token")
	return cmd
}
