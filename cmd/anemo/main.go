package main

import (
	"os"

	"github.com/cv2labs/anemo/internal/app"
	"github.com/cv2labs/anemo/internal/output"
)

func main() {
	if err := app.Execute(); err != nil {
		output.Error("%v", err)
		os.Exit(1)
	}
}
