package main

import (
	"fmt"
	"os"
	"time"

	"github.com/bgrewell/udf-kit"
	"github.com/bgrewell/udf-kit/pkg/logging"
	"github.com/bgrewell/usage"
	"github.com/bgrewell/udf-kit/pkg/option"
	"github.com/theckman/yacspin"
	"golang.org/x/term"
)

var (
	version = "dev"
)

// truncateString truncates the input string to the specified max length.
// If truncation occurs, it prepends "..." to indicate the string has been shortened.
func truncateString(input string, maxLength int) string {
	if len(input) <= maxLength {
		return input
	}
	if maxLength <= 3 {
		return input[len(input)-maxLength:]
	}
	return "..." + input[len(input)-(maxLength-3):]
}

// InitializeSpinner sets up and starts the yacspin spinner.
func InitializeSpinner(path string) (*yacspin.Spinner, error) {
	settings := yacspin.Config{
		Frequency:         100 * time.Millisecond,
		ShowCursor:        false,
		SpinnerAtEnd:      false,
		CharSet:           yacspin.CharSets[14],
		Colors:            []string{"fgHiCyan"},
		StopColors:        []string{"fgHiGreen"},
		StopFailColors:    []string{"fgHiRed"},
		StopFailCharacter: "✗",
		StopCharacter:     "✓",
	}

	spinner, err := yacspin.New(settings)
	if err != nil {
		return nil, fmt.Errorf("failed to create spinner: %w", err)
	}

	// Truncate the path to fit the terminal.
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		width = 80
	}
	availableSpace := width - 20
	if availableSpace < 10 {
		availableSpace = 10
	}
	spinner.Message(fmt.Sprintf(" resolving %s", truncateString(path, availableSpace)))

	if err := spinner.Start(); err != nil {
		return nil, fmt.Errorf("failed to start spinner: %w", err)
	}
	return spinner, nil
}

func main() {

	u := usage.NewUsage()
	help := u.AddBooleanOption("h", "help", false, "Show this help message", "optional", nil)
	verbose := u.AddBooleanOption("v", "verbose", false, "Print debug output", "", nil)
	trace := u.AddBooleanOption("vv", "trace", false, "Print trace output", "", nil)
	asJSON := u.AddBooleanOption("j", "json", false, "Print the layout as JSON", "", nil)
	noRecognition := u.AddBooleanOption("n", "no-recognition", false, "Skip the volume recognition check", "", nil)
	path := u.AddArgument(1, "image-path", "Path to the UDF image to inspect", "")
	parsed := u.Parse()

	if !parsed {
		u.PrintError(fmt.Errorf("failed to parse arguments"))
		os.Exit(1)
	}

	if *help {
		u.PrintUsage()
		os.Exit(0)
	}

	if path == nil || *path == "" {
		u.PrintError(fmt.Errorf("location of the image file <image-path> must be provided"))
		os.Exit(1)
	}

	verbosity := 0
	if *verbose {
		verbosity = logging.LEVEL_DEBUG
	}
	if *trace {
		verbosity = logging.LEVEL_TRACE
	}
	useColor := term.IsTerminal(int(os.Stderr.Fd()))
	logger := logging.NewLogger(logging.NewSimpleLogger(os.Stderr, verbosity, useColor))

	var spinner *yacspin.Spinner
	if verbosity == 0 {
		var err error
		spinner, err = InitializeSpinner(*path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to initialize spinner: %v\n", err)
		}
	}

	img, err := udf.Open(
		*path,
		option.WithLogger(logger),
		option.WithRecognitionCheck(!*noRecognition),
	)
	if err != nil {
		if spinner != nil {
			spinner.StopFailMessage(fmt.Sprintf(" failed to resolve %s: %v", *path, err))
			spinner.StopFail()
		}
		u.PrintError(err)
		os.Exit(1)
	}
	defer img.Close()

	if spinner != nil {
		spinner.StopMessage(fmt.Sprintf(" resolved %s", *path))
		spinner.Stop()
	}

	if *asJSON {
		fmt.Println(img.GetLayout().PrettyJSON())
		return
	}

	fmt.Printf("udfinfo v%s\n\n", version)
	fmt.Printf("Volume:         %s\n", img.GetVolumeID())
	fmt.Printf("Volume Set:     %s\n", img.GetVolumeSetID())
	fmt.Printf("Logical Volume: %s\n", img.GetLogicalVolumeID())
	fmt.Printf("Application:    %s\n", img.GetApplicationID())
	fmt.Printf("Implementation: %s\n", img.GetImplementationID())
	fmt.Println()
	img.GetLayout().Print(os.Stdout, term.IsTerminal(int(os.Stdout.Fd())))
}
