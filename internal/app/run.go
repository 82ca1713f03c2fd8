package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/Folusakin/Realtime-Copilot/internal/assembly"
	"github.com/Folusakin/Realtime-Copilot/internal/audio"
	"github.com/Folusakin/Realtime-Copilot/internal/chat"
	"github.com/Folusakin/Realtime-Copilot/internal/config"
	"github.com/Folusakin/Realtime-Copilot/internal/ipc"
	"github.com/Folusakin/Realtime-Copilot/internal/openai"
	"github.com/Folusakin/Realtime-Copilot/internal/output"
	"github.com/Folusakin/Realtime-Copilot/internal/pipeline"
	"github.com/Folusakin/Realtime-Copilot/internal/session"
)

// transcriptionChannel adapts an assembly connection to the pipeline's
// channel contract.
type transcriptionChannel struct {
	*assembly.Channel
}

func (c transcriptionChannel) ReadEvent() (pipeline.Event, error) {
	event, err := c.Channel.ReadEvent()
	if err != nil {
		return pipeline.Event{}, err
	}
	return pipeline.Event{
		Final: event.Type == assembly.EventFinalTranscript,
		Text:  event.Text,
	}, nil
}

// commandRun owns one whole copilot session: capture, the streaming
// pipeline, the conversation side, and the IPC control surface.
func (r Runner) commandRun(ctx context.Context, cfg config.Config, logger *slog.Logger) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	listener, err := ipc.Acquire(ctx, socketPath, 180*time.Millisecond, 8)
	if err != nil {
		if errors.Is(err, ipc.ErrAlreadyRunning) {
			fmt.Fprintln(r.Stderr, "error: a copilot session is already running")
			return 1
		}
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer func() {
		_ = listener.Close()
		_ = os.Remove(socketPath)
	}()

	selection, err := audio.SelectDevice(ctx, cfg.Audio.Input, cfg.Audio.Fallback)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if selection.Warning != "" {
		fmt.Fprintf(r.Stderr, "warning: %s\n", selection.Warning)
		logger.Warn("audio selection", "warning", selection.Warning)
	}

	capture, err := audio.StartCapture(ctx, selection.Device)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer capture.Close()
	logger.Info("audio capture started", "device", selection.Device.ID)

	client, err := openai.NewClient(openai.Config{
		BaseURL: cfg.OpenAI.BaseURL,
		APIKey:  cfg.OpenAI.APIKey,
		Model:   cfg.OpenAI.Model,
	})
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	console := output.NewConsole(r.Stdout, cfg.Prompt.UserName, cfg.Prompt.InterviewerName)

	log := chat.NewLog(cfg.Prompt.System)
	if cfg.Prompt.StyleNote != "" {
		log.Append(chat.RoleUser, cfg.Prompt.StyleNote)
	}
	processor := chat.NewProcessor(log, client, console, logger)

	sess := session.New(logger, time.Duration(cfg.ToggleGraceMS)*time.Millisecond)
	controller := session.NewController(logger, sess)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	serveErrCh := make(chan error, 1)
	go func() {
		serveErrCh <- ipc.Serve(runCtx, listener, controller)
	}()

	utterances := make(chan string, 8)
	procErrCh := make(chan error, 1)
	go func() {
		for {
			select {
			case <-runCtx.Done():
				return
			case <-sess.Done():
				return
			case utterance := <-utterances:
				console.UserTurn(utterance)
				log.Append(chat.RoleUser, utterance)
				if err := processor.Process(runCtx); err != nil {
					procErrCh <- err
					return
				}
			}
		}
	}()

	dialer := pipeline.DialerFunc(func(dialCtx context.Context) (pipeline.Channel, error) {
		channel, dialErr := assembly.Dial(dialCtx, assembly.Config{
			URL:          cfg.Transcription.URL,
			APIKey:       cfg.Transcription.APIKey,
			SampleRate:   cfg.Transcription.SampleRate,
			PingInterval: time.Duration(cfg.Transcription.PingIntervalS) * time.Second,
			PongTimeout:  time.Duration(cfg.Transcription.PingTimeoutS) * time.Second,
		})
		if dialErr != nil {
			return nil, dialErr
		}
		return transcriptionChannel{channel}, nil
	})

	supervisor, err := pipeline.NewSupervisor(pipeline.Config{
		Logger:           logger,
		Dialer:           dialer,
		Session:          sess,
		Frames:           capture.Frames(),
		Utterances:       utterances,
		BenignDisconnect: assembly.IsIdleClose,
	})
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	console.Status("Toggle to start transcription.")

	supErrCh := make(chan error, 1)
	go func() {
		supErrCh <- supervisor.Run(runCtx)
	}()

	exit := 0
	supDone := false
	select {
	case err := <-supErrCh:
		supDone = true
		if err != nil {
			fmt.Fprintf(r.Stderr, "error: %v\n", err)
			logger.Error("pipeline failed", "error", err.Error())
			exit = 1
		}
	case err := <-procErrCh:
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		logger.Error("conversation processing failed", "error", err.Error())
		exit = 1
	case <-ctx.Done():
		logger.Info("interrupted")
	}

	sess.Stop()
	capture.Close()
	if !supDone {
		if err := <-supErrCh; err != nil && exit == 0 {
			fmt.Fprintf(r.Stderr, "error: %v\n", err)
			exit = 1
		}
	}

	cancel()
	if serveErr := <-serveErrCh; serveErr != nil {
		fmt.Fprintf(r.Stderr, "error: ipc server failed: %v\n", serveErr)
		if exit == 0 {
			exit = 1
		}
	}

	logger.Info("session finished",
		"frames_dropped", capture.FramesDropped(),
		"bytes_captured", capture.BytesCaptured(),
		"conversation_entries", log.Len(),
	)
	return exit
}
