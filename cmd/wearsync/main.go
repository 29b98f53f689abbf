// CLI de operación contra la API del servicio (rutas /api/garmin).
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

type client struct {
	BaseURL   string
	Token     string
	OutFormat string // "json" | "text"
	HTTP      *http.Client
}

func (c *client) do(method, path string, body []byte) (int, []byte, error) {
	url := strings.TrimRight(c.BaseURL, "/") + path
	req, err := http.NewRequest(method, url, bytes.NewReader(body))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, b, nil
}

func (c *client) print(status int, body []byte) {
	if c.OutFormat == "json" {
		var v any
		if json.Unmarshal(body, &v) == nil {
			p, _ := json.MarshalIndent(v, "", "  ")
			fmt.Println(string(p))
			return
		}
	}
	if len(body) > 0 {
		fmt.Println(string(body))
	} else {
		fmt.Printf("status=%d\n", status)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func main() {
	var (
		baseURL = envOr("WEARSYNC_URL", "http://localhost:8080")
		token   = envOr("WEARSYNC_TOKEN", "")
		out     = envOr("WEARSYNC_OUT", "text")
		timeout = 30 * time.Second
	)

	root := &cobra.Command{
		Use:   "wearsync",
		Short: "CLI de operación para el servicio wearsync",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if token == "" {
				return fmt.Errorf("falta el token de sesión (flag --token o env WEARSYNC_TOKEN)")
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&baseURL, "url", baseURL, "URL base del servicio (env WEARSYNC_URL)")
	root.PersistentFlags().StringVar(&token, "token", token, "JWT de sesión del usuario (env WEARSYNC_TOKEN)")
	root.PersistentFlags().StringVar(&out, "out", out, "Formato de salida: json|text")

	httpClient := &http.Client{Timeout: timeout}
	cl := &client{BaseURL: baseURL, Token: token, OutFormat: out, HTTP: httpClient}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Estado del vínculo Garmin del usuario",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, body, err := cl.do("GET", "/api/garmin/status", nil)
			if err != nil {
				return err
			}
			if status/100 != 2 {
				return fmt.Errorf("status fallo: status=%d body=%s", status, string(body))
			}
			cl.print(status, body)
			return nil
		},
	}

	var callbackURL string
	startCmd := &cobra.Command{
		Use:   "start-auth",
		Short: "Inicia el flujo de autorización y muestra la URL a abrir",
		RunE: func(cmd *cobra.Command, args []string) error {
			var payload []byte
			if callbackURL != "" {
				payload, _ = json.Marshal(map[string]string{"callbackUrl": callbackURL})
			}
			status, body, err := cl.do("POST", "/api/garmin/start-auth", payload)
			if err != nil {
				return err
			}
			if status/100 != 2 {
				return fmt.Errorf("start-auth fallo: status=%d body=%s", status, string(body))
			}
			cl.print(status, body)
			return nil
		},
	}
	startCmd.Flags().StringVar(&callbackURL, "callback", "", "Callback final (deep link móvil o URL web)")

	disconnectCmd := &cobra.Command{
		Use:   "disconnect",
		Short: "Desvincula la cuenta Garmin del usuario",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, body, err := cl.do("POST", "/api/garmin/disconnect", nil)
			if err != nil {
				return err
			}
			if status/100 != 2 {
				return fmt.Errorf("disconnect fallo: status=%d body=%s", status, string(body))
			}
			cl.print(status, body)
			return nil
		},
	}

	root.AddCommand(statusCmd, startCmd, disconnectCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
