// Package main provides the speech plugin.
// It speaks text through espeak-ng on Linux and say on macOS, and transcribes
// recordings with whisper.cpp.
package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
)

// Request represents the input from the plugin executor.
type Request struct {
	Action  string          `json:"action"`
	Gesture string          `json:"gesture"`
	Text    string          `json:"text"`
	Lang    string          `json:"lang"`
	Rate    float64         `json:"rate"`
	Audio   []byte          `json:"audio"`
	Config  json.RawMessage `json:"config"`
	Params  json.RawMessage `json:"params"`
}

// Response represents the output to the plugin executor.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// baseWPM is the speaking rate both engines use at rate 1.0.
const baseWPM = 175

var (
	errNoText  = errors.New("nothing to speak")
	errNoAudio = errors.New("nothing to transcribe")
)

// whisperBin is the whisper.cpp command line tool. WHISPER_MODEL points at
// its ggml model file.
const whisperBin = "whisper-cli"

// engine wraps one platform's text-to-speech command.
type engine struct {
	name   string
	voice  func(lang string) string
	speak  func(text, voice string, wpm int) *exec.Cmd
	voices func() *exec.Cmd
	parse  func(out []byte) []string
}

var engines = map[string]engine{
	"linux": {
		name:  "espeak-ng",
		voice: voiceFor,
		speak: func(text, voice string, wpm int) *exec.Cmd {
			return exec.Command("espeak-ng", "-v", voice, "-s", strconv.Itoa(wpm), text)
		},
		voices: func() *exec.Cmd { return exec.Command("espeak-ng", "--voices") },
		parse:  parseEspeakVoices,
	},
	"darwin": {
		name:  "say",
		voice: sayVoiceFor,
		speak: func(text, voice string, wpm int) *exec.Cmd {
			if voice == "" {
				return exec.Command("say", "-r", strconv.Itoa(wpm), text)
			}
			return exec.Command("say", "-v", voice, "-r", strconv.Itoa(wpm), text)
		},
		voices: func() *exec.Cmd { return exec.Command("say", "-v", "?") },
		parse:  parseSayVoices,
	},
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeErrorResponse(fmt.Sprintf("failed to decode request: %v", err))
		return
	}

	var (
		data any
		err  error
		eng  engine
	)
	switch req.Action {
	case "speak":
		if eng, err = platformEngine(); err == nil {
			data, err = speak(eng, req)
		}
	case "voices":
		if eng, err = platformEngine(); err == nil {
			data, err = listVoices(eng)
		}
	case "transcribe":
		data, err = transcribe(req)
	default:
		writeErrorResponse(fmt.Sprintf("unknown action: %s", req.Action))
		return
	}
	if err != nil {
		writeErrorResponse(fmt.Sprintf("action %s failed: %v", req.Action, err))
		return
	}

	writeSuccessResponse(data)
}

func platformEngine() (engine, error) {
	eng, ok := engines[runtime.GOOS]
	if !ok {
		return engine{}, fmt.Errorf("no speech engine for %s", runtime.GOOS)
	}
	return eng, nil
}

func speak(eng engine, req Request) (any, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, errNoText
	}
	voice := eng.voice(req.Lang)
	wpm := wordsPerMinute(req.Rate)

	if out, err := eng.speak(text, voice, wpm).CombinedOutput(); err != nil {
		return nil, fmt.Errorf("%w: %s", err, string(out))
	}
	return map[string]any{"engine": eng.name, "voice": voice, "wpm": wpm}, nil
}

func listVoices(eng engine) (any, error) {
	out, err := eng.voices().Output()
	if err != nil {
		return nil, err
	}
	return map[string]any{"engine": eng.name, "voices": eng.parse(out)}, nil
}

// transcribe writes the recording to a temporary WAV file, converting other
// containers with ffmpeg, and runs whisper on it.
func transcribe(req Request) (any, error) {
	if len(req.Audio) == 0 {
		return nil, errNoAudio
	}
	model := whisperModel()
	if _, err := os.Stat(model); err != nil {
		return nil, fmt.Errorf("whisper model: %w", err)
	}

	dir, err := os.MkdirTemp("", "signspeak-stt-")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	wav := filepath.Join(dir, "audio.wav")
	if isWAV(req.Audio) {
		err = os.WriteFile(wav, req.Audio, 0600)
	} else {
		err = convertToWAV(dir, req.Audio, wav)
	}
	if err != nil {
		return nil, err
	}

	lang := voiceFor(req.Lang)
	out, err := exec.Command(whisperBin, "-m", model, "-l", lang, "-nt", "-np", "-f", wav).Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("%s: %w: %s", whisperBin, err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return nil, fmt.Errorf("%s: %w", whisperBin, err)
	}
	return map[string]any{"text": cleanTranscript(out), "lang": lang}, nil
}

// convertToWAV resamples any ffmpeg-readable recording to 16 kHz mono WAV,
// which is what whisper expects.
func convertToWAV(dir string, audio []byte, wav string) error {
	in := filepath.Join(dir, "audio.in")
	if err := os.WriteFile(in, audio, 0600); err != nil {
		return err
	}
	out, err := exec.Command("ffmpeg", "-y", "-loglevel", "error", "-i", in, "-ar", "16000", "-ac", "1", wav).CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

func whisperModel() string {
	if m := os.Getenv("WHISPER_MODEL"); m != "" {
		return m
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".signspeak", "models", "ggml-base.bin")
}

// isWAV checks for a RIFF/WAVE header.
func isWAV(b []byte) bool {
	return len(b) >= 12 && string(b[:4]) == "RIFF" && string(b[8:12]) == "WAVE"
}

// cleanTranscript joins whisper's output lines into one sentence.
func cleanTranscript(out []byte) string {
	return strings.Join(strings.Fields(string(out)), " ")
}

// voiceFor maps a BCP 47 tag such as "ar-SA" to an espeak voice name.
func voiceFor(lang string) string {
	lang = strings.TrimSpace(strings.ToLower(lang))
	if lang == "" {
		return "ar"
	}
	if i := strings.IndexAny(lang, "-_"); i > 0 {
		return lang[:i]
	}
	return lang
}

// wordsPerMinute converts a Web Speech style rate (1.0 is normal) to words per minute.
func wordsPerMinute(rate float64) int {
	if rate <= 0 {
		rate = 1
	}
	wpm := int(rate * baseWPM)
	if wpm < 80 {
		wpm = 80
	}
	if wpm > 450 {
		wpm = 450
	}
	return wpm
}

// parseEspeakVoices reads the language column of `espeak-ng --voices`.
func parseEspeakVoices(out []byte) []string {
	var voices []string
	sc := bufio.NewScanner(bytes.NewReader(out))
	header := true
	for sc.Scan() {
		if header {
			header = false
			continue
		}
		fields := strings.Fields(sc.Text())
		if len(fields) >= 2 {
			voices = append(voices, fields[1])
		}
	}
	return voices
}

// sayVoice is one line of `say -v ?`.
type sayVoice struct {
	name   string
	locale string
}

// readSayVoices parses `say -v ?`. Lines look like
// "Majed               ar_SA    # ...".
func readSayVoices(out []byte) []sayVoice {
	var voices []sayVoice
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		line, _, _ := strings.Cut(sc.Text(), "#")
		fields := strings.Fields(line)
		if len(fields) >= 2 {
			voices = append(voices, sayVoice{
				name:   strings.Join(fields[:len(fields)-1], " "),
				locale: fields[len(fields)-1],
			})
		}
	}
	return voices
}

func parseSayVoices(out []byte) []string {
	var names []string
	for _, v := range readSayVoices(out) {
		names = append(names, v.name+" ("+v.locale+")")
	}
	return names
}

// matchSayVoice picks the voice whose locale equals lang, else the first one
// with the same language. It returns "" when nothing matches, which leaves
// say on the system voice.
func matchSayVoice(voices []sayVoice, lang string) string {
	want := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(lang)), "-", "_")
	if want == "" {
		want = "ar_sa"
	}
	prefix, _, _ := strings.Cut(want, "_")

	fallback := ""
	for _, v := range voices {
		locale := strings.ToLower(v.locale)
		if locale == want {
			return v.name
		}
		if fallback == "" && strings.SplitN(locale, "_", 2)[0] == prefix {
			fallback = v.name
		}
	}
	return fallback
}

// sayVoiceFor asks say for its installed voices and matches lang against them.
func sayVoiceFor(lang string) string {
	out, err := exec.Command("say", "-v", "?").Output()
	if err != nil {
		return ""
	}
	return matchSayVoice(readSayVoices(out), lang)
}

// writeErrorResponse writes an error response to stdout.
func writeErrorResponse(errMsg string) {
	resp := Response{
		Success: false,
		Error:   errMsg,
	}
	json.NewEncoder(os.Stdout).Encode(resp)
}

// writeSuccessResponse writes a success response with optional data to stdout.
func writeSuccessResponse(data any) {
	resp := Response{Success: true}
	if data != nil {
		if raw, err := json.Marshal(data); err == nil {
			resp.Data = raw
		}
	}
	json.NewEncoder(os.Stdout).Encode(resp)
}
