// geoknn-cli issues a single kNN query against a running geoknn-server
// and prints the response. It speaks plain HTTP GET, matching the query
// server's own request shape: index, x, y, optional z, no, fmt.
package main

import (
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"
)

const version = "1.0.0"

func main() {
	if len(os.Args) < 2 {
		showUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "query":
		handleQuery(os.Args[2:])
	case "health":
		handleHealth(os.Args[2:])
	case "stats":
		handleStats(os.Args[2:])
	case "version":
		fmt.Printf("geoknn-cli version %s\n", version)
	case "help", "-h", "--help":
		showUsage()
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		showUsage()
		os.Exit(1)
	}
}

func handleQuery(args []string) {
	fs := flag.NewFlagSet("query", flag.ExitOnError)
	var (
		addr    = fs.String("addr", "localhost:9090", "query server address")
		index   = fs.String("index", "", "index name (required)")
		x       = fs.String("x", "", "query x coordinate (required)")
		y       = fs.String("y", "", "query y coordinate (required)")
		z       = fs.String("z", "", "query z coordinate (3D index only)")
		no      = fs.Int("no", 1, "number of nearest neighbors to return")
		format  = fs.String("fmt", "", "response format: empty for JSON, \"csv\" for CSV")
		timeout = fs.Duration("timeout", 10*time.Second, "request timeout")
	)
	fs.Parse(args)

	if *index == "" || *x == "" || *y == "" {
		fmt.Println("Error: -index, -x and -y are required")
		fs.Usage()
		os.Exit(1)
	}

	q := url.Values{}
	q.Set("index", *index)
	q.Set("x", *x)
	q.Set("y", *y)
	if *z != "" {
		q.Set("z", *z)
	}
	q.Set("no", strconv.Itoa(*no))
	if *format != "" {
		q.Set("fmt", *format)
	}

	body, status, err := get(*addr, "/", q, *timeout)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	if status != http.StatusOK {
		fmt.Printf("Query failed: HTTP %d\n", status)
		os.Exit(1)
	}
	os.Stdout.Write(body)
	fmt.Println()
}

func handleHealth(args []string) {
	fs := flag.NewFlagSet("health", flag.ExitOnError)
	addr := fs.String("admin-addr", "localhost:9091", "admin API address")
	timeout := fs.Duration("timeout", 10*time.Second, "request timeout")
	fs.Parse(args)

	body, status, err := get(*addr, "/admin/health", nil, *timeout)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	os.Stdout.Write(body)
	fmt.Println()
	if status != http.StatusOK {
		os.Exit(1)
	}
}

func handleStats(args []string) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	addr := fs.String("admin-addr", "localhost:9091", "admin API address")
	timeout := fs.Duration("timeout", 10*time.Second, "request timeout")
	fs.Parse(args)

	body, status, err := get(*addr, "/admin/stats", nil, *timeout)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	if status != http.StatusOK {
		fmt.Printf("Stats request failed: HTTP %d\n", status)
		os.Exit(1)
	}
	os.Stdout.Write(body)
	fmt.Println()
}

func get(addr, path string, query url.Values, timeout time.Duration) ([]byte, int, error) {
	u := url.URL{Scheme: "http", Host: addr, Path: path, RawQuery: query.Encode()}
	client := &http.Client{Timeout: timeout}
	resp, err := client.Get(u.String())
	if err != nil {
		return nil, 0, fmt.Errorf("connecting to %s: %w", addr, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("reading response: %w", err)
	}
	return body, resp.StatusCode, nil
}

func showUsage() {
	fmt.Println(`geoknn CLI - client for the geoknn spatial kNN query server

Usage:
  geoknn-cli <command> [options]

Commands:
  query     Run a k-nearest-neighbor query
  health    Check admin API health (registry loading/serving status)
  stats     Fetch per-index usage stats from the admin API
  version   Show version
  help      Show this help message

Examples:

  # Query the 2 nearest neighbors of (10, 20) in index "cities"
  geoknn-cli query -index cities -x 10 -y 20 -no 2

  # Query a 3D index, CSV output
  geoknn-cli query -index sensors -x 1 -y 2 -z 3 -fmt csv

  # Check whether the server has finished loading its indexes
  geoknn-cli health

  # Fetch usage stats
  geoknn-cli stats

  # Use a non-default server address
  geoknn-cli query -addr geoknn.internal:9090 -index cities -x 10 -y 20`)
}
