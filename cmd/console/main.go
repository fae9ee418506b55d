package main

import (
	"captionservice/internal"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/chzyer/readline"
	"github.com/sirupsen/logrus"
)

func main() {
	err := mainImpl()
	if err != nil {
		logrus.WithError(err).Fatal("Console failed")
	}
}

func mainImpl() error {
	cfg, err := internal.ReadConfig()
	if err != nil {
		return err
	}

	log := internal.NewLogger(cfg.Log)
	log.SetLevel(logrus.WarnLevel)

	ctx := context.Background()
	captioner, err := internal.NewCaptionerFromConfig(ctx, cfg, log)
	if err != nil {
		return err
	}

	rl, err := readline.New("image> ")
	if err != nil {
		return err
	}
	defer func() {
		_ = rl.Close()
	}()

	for {
		line, err := rl.Readline()
		if err != nil { // io.EOF or interrupt
			break
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		result, err := captioner.Caption(ctx, line)
		var response any = result
		if err != nil {
			response = internal.ErrorResponse{Error: internal.AsError(err).Body()}
		}
		out, err := json.MarshalIndent(response, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
	}
	return nil
}
