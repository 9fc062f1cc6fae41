// Package player adapts mpv into the sync engine's playback driver. mpv
// runs in idle mode from startup and is driven over its JSON IPC socket, so
// episode switches and seeks are instant. Commands are fire-and-forget;
// asynchronous failures surface through an error callback.
package player

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/flixoflax/lto.lachsnudel.space/internal/models"
)

type Player struct {
	binary     string
	socketPath string
	logger     *log.Logger

	mu       sync.Mutex
	cmd      *exec.Cmd
	src      string
	position float64
	duration float64
	paused   bool

	ticks   chan float64
	stopCh  chan struct{}
	onError func(err error)
}

type mpvCommand struct {
	Command   []interface{} `json:"command"`
	RequestID int           `json:"request_id,omitempty"`
}

type mpvResponse struct {
	Data      interface{} `json:"data"`
	RequestID int         `json:"request_id"`
	Error     string      `json:"error"`
}

// New creates an unstarted player. binary is the mpv executable name.
func New(binary string, logger *log.Logger) *Player {
	p := &Player{
		binary:     binary,
		socketPath: fmt.Sprintf("/tmp/lachsnudel-mpv-%d", os.Getpid()),
		logger:     logger,
		ticks:      make(chan float64, 1),
		stopCh:     make(chan struct{}),
	}

	// Clean up any stale socket from a previous run
	os.Remove(p.socketPath)

	return p
}

// SetOnError registers the callback for asynchronous playback failures.
func (p *Player) SetOnError(fn func(err error)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onError = fn
}

// Ticks returns the 1 Hz position report channel.
func (p *Player) Ticks() <-chan float64 {
	return p.ticks
}

// Start launches mpv in idle mode, ready to load episodes instantly.
func (p *Player) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cmd != nil {
		return nil
	}

	os.Remove(p.socketPath)

	p.cmd = exec.Command(p.binary,
		"--no-video",
		"--really-quiet",
		"--no-terminal",
		fmt.Sprintf("--input-ipc-server=%s", p.socketPath),
		"--idle",
		"--force-window=no",
		"--keep-open=no",
	)

	if err := p.cmd.Start(); err != nil {
		p.cmd = nil
		return fmt.Errorf("failed to start %s: %w", p.binary, err)
	}

	// Wait for mpv to create the socket with timeout
	socketReady := false
	for i := 0; i < 10; i++ {
		if _, err := os.Stat(p.socketPath); err == nil {
			socketReady = true
			break
		}
		time.Sleep(100 * time.Millisecond)
	}

	if !socketReady {
		p.cmd.Process.Kill()
		p.cmd.Wait()
		p.cmd = nil
		return fmt.Errorf("mpv socket not created after timeout")
	}

	go p.watchPosition()

	p.logger.Info("audio player started", "binary", p.binary)
	return nil
}

// Load points the player at an episode without starting playback. Loading
// is a no-op when the requested audio source already matches the current
// one, so repeated remote updates for the same episode cause no reload.
func (p *Player) Load(episode *models.Episode) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if episode == nil || episode.AudioURL == p.src {
		return
	}

	if _, err := p.sendCommand(mpvCommand{
		Command: []interface{}{"loadfile", episode.AudioURL},
	}); err != nil {
		p.reportError(fmt.Errorf("failed to load %q: %w", episode.Title, err))
		return
	}

	// loadfile starts playing; the engine decides when playback starts
	if _, err := p.sendCommand(mpvCommand{
		Command: []interface{}{"set_property", "pause", true},
	}); err != nil {
		p.logger.Warn("failed to pause after load", "err", err)
	}

	p.src = episode.AudioURL
	p.position = 0
	p.duration = 0
	p.paused = true
}

// Play starts or resumes playback. Failures are reported asynchronously.
func (p *Player) Play() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.src == "" {
		return
	}

	if _, err := p.sendCommand(mpvCommand{
		Command: []interface{}{"set_property", "pause", false},
	}); err != nil {
		p.reportError(fmt.Errorf("playback refused to start: %w", err))
		return
	}
	p.paused = false
}

// Pause halts playback.
func (p *Player) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.src == "" {
		return
	}

	if _, err := p.sendCommand(mpvCommand{
		Command: []interface{}{"set_property", "pause", true},
	}); err != nil {
		p.reportError(fmt.Errorf("failed to pause: %w", err))
		return
	}
	p.paused = true
}

// SeekTo jumps to an absolute position. Targets outside [0, duration] are
// clamped here; the state store never clamps.
func (p *Player) SeekTo(seconds float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.src == "" {
		return
	}

	if seconds < 0 {
		seconds = 0
	}
	if p.duration > 0 && seconds >= p.duration {
		seconds = p.duration - 1
		if seconds < 0 {
			seconds = 0
		}
	}

	if _, err := p.sendCommand(mpvCommand{
		Command: []interface{}{"seek", seconds, "absolute"},
	}); err != nil {
		p.reportError(fmt.Errorf("failed to seek: %w", err))
		return
	}
	p.position = seconds
}

// Position returns the last observed playback position in seconds.
func (p *Player) Position() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.position
}

// Duration returns the loaded episode's duration in seconds, or 0 while it
// is still unknown.
func (p *Player) Duration() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.duration
}

// Source returns the currently loaded audio URL.
func (p *Player) Source() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.src
}

// Close shuts mpv down and releases the IPC socket.
func (p *Player) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	select {
	case <-p.stopCh:
	default:
		close(p.stopCh)
	}

	if p.cmd != nil && p.cmd.Process != nil {
		p.sendCommand(mpvCommand{Command: []interface{}{"quit"}})

		done := make(chan error, 1)
		go func() {
			done <- p.cmd.Wait()
		}()

		select {
		case <-done:
		case <-time.After(500 * time.Millisecond):
			p.logger.Warn("force killing mpv", "pid", p.cmd.Process.Pid)
			if err := p.cmd.Process.Kill(); err != nil {
				p.logger.Error("failed to kill mpv", "err", err)
			}
			<-done
		}
	}

	os.Remove(p.socketPath)
	p.cmd = nil
	p.src = ""
}

// sendCommand talks to mpv over its IPC socket. Callers hold p.mu.
func (p *Player) sendCommand(cmd mpvCommand) (*mpvResponse, error) {
	conn, err := net.Dial("unix", p.socketPath)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mpv socket: %w", err)
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(2 * time.Second))

	data, err := json.Marshal(cmd)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal command: %w", err)
	}
	data = append(data, '\n')

	if _, err := conn.Write(data); err != nil {
		return nil, fmt.Errorf("failed to write command: %w", err)
	}

	reader := bufio.NewReader(conn)
	responseData, err := reader.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var response mpvResponse
	if err := json.Unmarshal(responseData, &response); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if response.Error != "" && response.Error != "success" {
		return &response, fmt.Errorf("mpv error: %s", response.Error)
	}

	return &response, nil
}

// watchPosition polls mpv once a second and feeds the tick channel. Stale
// ticks are dropped rather than queued so the consumer always sees the
// freshest position.
func (p *Player) watchPosition() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-p.stopCh:
			return
		case <-ticker.C:
			p.mu.Lock()
			if p.src == "" {
				p.mu.Unlock()
				continue
			}

			if resp, err := p.sendCommand(mpvCommand{
				Command: []interface{}{"get_property", "time-pos"},
			}); err == nil {
				if pos, ok := resp.Data.(float64); ok && pos >= 0 {
					p.position = pos
				}
			}

			if p.duration == 0 {
				if resp, err := p.sendCommand(mpvCommand{
					Command: []interface{}{"get_property", "duration"},
				}); err == nil {
					if dur, ok := resp.Data.(float64); ok && dur > 0 {
						p.duration = dur
					}
				}
			}

			paused := p.paused
			position := p.position
			p.mu.Unlock()

			if paused {
				continue
			}

			select {
			case p.ticks <- position:
			default:
			}
		}
	}
}

func (p *Player) reportError(err error) {
	p.logger.Warn("player command failed", "err", err)
	if p.onError != nil {
		go p.onError(err)
	}
}
