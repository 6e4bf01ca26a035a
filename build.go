//go:build ignore

// build.go - ruccli build script
// Usage: go run build.go [-target=TARGET] [-goos=OS] [-goarch=ARCH]
// Targets: all, classifier, choropleth, test, clean, release

package main

import (
	"flag"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"
)

const (
	version = "1.0.0"
	module  = "ruccli"
)

// BuildContext holds configuration for the build process
type BuildContext struct {
	Verbose bool
	GOOS    string
	GOARCH  string
}

var (
	rootDir string
	distDir string

	// Commands under ./cmd built by "all"
	commands = []string{"classifier", "choropleth"}

	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorCyan   = "\033[36m"
)

func init() {
	cwd, err := os.Getwd()
	if err != nil {
		panic(fmt.Sprintf("Failed to get current directory: %v", err))
	}
	rootDir = cwd
	distDir = filepath.Join(rootDir, "dist")

	if _, err := os.Stat(filepath.Join(rootDir, "go.mod")); os.IsNotExist(err) {
		panic(fmt.Sprintf("go.mod not found in %s. Run the build from the repository root.", rootDir))
	}
}

func main() {
	target := flag.String("target", "all", "Build target")
	verbose := flag.Bool("v", false, "Verbose output")
	goos := flag.String("goos", runtime.GOOS, "Target operating system")
	goarch := flag.String("goarch", runtime.GOARCH, "Target architecture")
	flag.Parse()

	printHeader()
	startTime := time.Now()

	ctx := &BuildContext{Verbose: *verbose, GOOS: *goos, GOARCH: *goarch}

	switch *target {
	case "all":
		buildAll(ctx)
	case "classifier", "choropleth":
		prepareDirectories(ctx.Verbose)
		buildCommand(*target, ctx)
	case "test":
		runTests(ctx.Verbose)
	case "clean":
		clean(ctx.Verbose)
	case "release":
		buildRelease(ctx)
	default:
		showHelp()
		os.Exit(1)
	}

	duration := time.Since(startTime)
	printSuccess(fmt.Sprintf("Build completed in %s", duration.Round(time.Millisecond)))
}

func printHeader() {
	fmt.Println(colorCyan + "===========================================" + colorReset)
	fmt.Println(colorCyan + "         ruccli - Build System             " + colorReset)
	fmt.Println(colorCyan + "===========================================" + colorReset)
	fmt.Println()
}

func printInfo(msg string) {
	fmt.Printf("%s[INFO]%s %s\n", colorBlue, colorReset, msg)
}

func printSuccess(msg string) {
	fmt.Printf("%s[SUCCESS]%s %s\n", colorGreen, colorReset, msg)
}

func printError(msg string) {
	fmt.Printf("%s[ERROR]%s %s\n", colorRed, colorReset, msg)
}

func printWarning(msg string) {
	fmt.Printf("%s[WARNING]%s %s\n", colorYellow, colorReset, msg)
}

// Build every command
func buildAll(ctx *BuildContext) {
	printInfo("Building all commands...")
	prepareDirectories(ctx.Verbose)
	for _, name := range commands {
		buildCommand(name, ctx)
	}
	printSuccess("All commands built successfully!")
}

// buildCommand builds ./cmd/<name> into dist/, named for the target platform.
func buildCommand(name string, ctx *BuildContext) {
	printInfo(fmt.Sprintf("Building %s for %s/%s...", name, ctx.GOOS, ctx.GOARCH))

	exeName := name
	if ctx.GOOS == "windows" {
		exeName += ".exe"
	}
	outputPath := filepath.Join(distDir, ctx.GOOS+"_"+ctx.GOARCH, exeName)

	ldflags := fmt.Sprintf("-s -w -X %s/internal/config.BuildTime=%s",
		module, time.Now().UTC().Format(time.RFC3339))

	args := []string{"build"}
	if ctx.Verbose {
		args = append(args, "-v")
	}
	args = append(args, "-trimpath", "-ldflags", ldflags, "-o", outputPath, "./cmd/"+name)

	cmd := exec.Command("go", args...)
	cmd.Dir = rootDir
	// Geometry repair links libgeos through cgo.
	cmd.Env = append(os.Environ(), "GOOS="+ctx.GOOS, "GOARCH="+ctx.GOARCH, "CGO_ENABLED=1")
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		printError(fmt.Sprintf("Failed to build %s: %v", name, err))
		os.Exit(1)
	}
	printSuccess(fmt.Sprintf("Built %s", outputPath))
}

func prepareDirectories(verbose bool) {
	if err := os.MkdirAll(distDir, 0755); err != nil {
		printError(fmt.Sprintf("Failed to create %s: %v", distDir, err))
		os.Exit(1)
	}
	if verbose {
		printInfo(fmt.Sprintf("Output directory: %s", distDir))
	}
}

func clean(verbose bool) {
	printInfo("Cleaning build artifacts...")
	if err := os.RemoveAll(distDir); err != nil {
		printWarning(fmt.Sprintf("Failed to remove %s: %v", distDir, err))
		return
	}
	if verbose {
		printInfo(fmt.Sprintf("Removed %s", distDir))
	}
}

func runTests(verbose bool) {
	printInfo("Running Go tests...")
	args := []string{"test", "-race"}
	if verbose {
		args = append(args, "-v")
	}
	args = append(args, "./...")

	cmd := exec.Command("go", args...)
	cmd.Dir = rootDir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		printError(fmt.Sprintf("Go tests failed: %v", err))
		os.Exit(1)
	}
}

// buildRelease builds every command for the platforms the tools ship on.
func buildRelease(ctx *BuildContext) {
	printInfo("Building release...")
	clean(ctx.Verbose)
	prepareDirectories(ctx.Verbose)

	platforms := [][2]string{{"windows", "amd64"}, {"linux", "amd64"}, {"darwin", "arm64"}}
	for _, p := range platforms {
		if (p[0] != runtime.GOOS || p[1] != runtime.GOARCH) && os.Getenv("CC") == "" {
			printWarning(fmt.Sprintf("Skipping %s/%s: cross builds need CC set to a cross compiler with GEOS", p[0], p[1]))
			continue
		}
		platformCtx := &BuildContext{Verbose: ctx.Verbose, GOOS: p[0], GOARCH: p[1]}
		for _, name := range commands {
			buildCommand(name, platformCtx)
		}
	}
	printSuccess(fmt.Sprintf("Release %s built in %s", version, distDir))
}

func showHelp() {
	fmt.Println("Usage: go run build.go [-target=TARGET] [-v] [-goos=OS] [-goarch=ARCH]")
	fmt.Println()
	fmt.Println("Targets:")
	fmt.Println("  all         Build both commands (default)")
	fmt.Println("  classifier  Build the record classifier")
	fmt.Println("  choropleth  Build the choropleth renderer")
	fmt.Println("  test        Run the Go tests")
	fmt.Println("  clean       Remove build artifacts")
	fmt.Println("  release     Build both commands for Windows, Linux and macOS")
	fmt.Println()
	fmt.Println("Building requires cgo and the GEOS C library (libgeos-dev, brew install geos).")
}
