// Command gatectl is a CLI client for the admission gate daemon.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/spf13/pflag"
)

func main() {
	serverURL := pflag.String("server", "http://localhost:8080", "gatesimd server URL")

	submitCmd := pflag.NewFlagSet("submit", pflag.ExitOnError)
	submitFamily := submitCmd.String("family", "ORBITAL", "command family (ORBITAL, GROUND_STATION, TAR_PIT, SILENT)")
	submitLineage := submitCmd.Uint64("lineage", 1, "lineage ID")
	submitTick := submitCmd.Uint64("tick", 1, "tick")
	submitAngle := submitCmd.Uint16("angle", 0, "raw angle hint (0-65535)")
	submitPayload := submitCmd.String("payload", "", "payload bytes, as a UTF-8 string")

	snapshotCmd := pflag.NewFlagSet("snapshot", pflag.ExitOnError)

	statsCmd := pflag.NewFlagSet("stats", pflag.ExitOnError)

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	pflag.CommandLine.SetInterspersed(false)
	pflag.Parse()

	switch os.Args[1] {
	case "submit":
		submitCmd.Parse(os.Args[2:])
		submitCommand(*serverURL, *submitFamily, *submitLineage, *submitTick, *submitAngle, []byte(*submitPayload))

	case "snapshot":
		snapshotCmd.Parse(os.Args[2:])
		getSnapshot(*serverURL)

	case "stats":
		statsCmd.Parse(os.Args[2:])
		getStats(*serverURL)

	case "demo":
		runDemo(*serverURL)

	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Admission Gate Client

Usage:
  gatectl <command> [options]

Commands:
  submit     Submit an admission request
  snapshot   View every cell's current state
  stats      View daemon statistics
  demo       Run a demonstration walkthrough

Examples:
  gatectl submit --family ORBITAL --tick 1 --angle 8192 --payload hello
  gatectl snapshot
  gatectl stats
  gatectl demo`)
}

func submitCommand(serverURL, family string, lineage, tick uint64, angle uint16, payload []byte) {
	req := map[string]interface{}{
		"family":     family,
		"lineage_id": lineage,
		"tick":       tick,
		"angle_hint": angle,
		"payload":    payload,
	}

	resp, err := postJSON(serverURL+"/admit", req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	fmt.Printf("Admit Response:\n")
	printJSON(resp)
}

func getSnapshot(serverURL string) {
	resp, err := http.Get(serverURL + "/snapshot")
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	fmt.Printf("Cell Snapshot:\n")
	printJSONBytes(body)
}

func getStats(serverURL string) {
	resp, err := http.Get(serverURL + "/stats")
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	fmt.Printf("Daemon Statistics:\n")
	printJSONBytes(body)
}

func runDemo(serverURL string) {
	fmt.Println("=== Admission Gate Demo ===")

	fmt.Println("1. Initial cell snapshot:")
	getSnapshot(serverURL)

	fmt.Println("\n2. Orbital commands sweeping through the resonance band:")
	for _, angle := range []uint16{0, 4096, 8192, 12288, 16384} {
		submitCommand(serverURL, "ORBITAL", 1, uint64(angle), angle, []byte("demo-payload"))
	}

	fmt.Println("\n3. Cell snapshot after the sweep:")
	getSnapshot(serverURL)

	fmt.Println("\n4. A Silent-family command, which never admits:")
	submitCommand(serverURL, "SILENT", 2, 100, 0, nil)

	fmt.Println("\n5. Daemon statistics:")
	getStats(serverURL)

	fmt.Println("\n=== Demo Complete ===")
}

func postJSON(url string, data interface{}) (map[string]interface{}, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	resp, err := http.Post(url, "application/json", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var result map[string]interface{}
	err = json.Unmarshal(body, &result)
	return result, err
}

func printJSON(data interface{}) {
	jsonBytes, _ := json.MarshalIndent(data, "", "  ")
	fmt.Println(string(jsonBytes))
}

func printJSONBytes(data []byte) {
	var obj interface{}
	json.Unmarshal(data, &obj)
	printJSON(obj)
}
