package supervisor

import (
	"context"
	"encoding/json"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/scottieai/collab-hub/host/internal/bridge"
	"github.com/scottieai/collab-hub/host/internal/platform"
	"github.com/scottieai/collab-hub/host/internal/update"
)

// dialogTimeout bounds how long a native dialog may stay open before the
// command fails.
const dialogTimeout = 5 * time.Minute

type openDialogResult struct {
	Paths []string `json:"paths"`
}

type saveDialogResult struct {
	Path string `json:"path"`
}

// registerHandlers wires the whitelisted command set into the bridge.
func (s *Supervisor) registerHandlers() {
	s.bridge.Register(bridge.CmdGetAppDataPath, s.handleGetAppDataPath)
	s.bridge.Register(bridge.CmdGetSystemInfo, s.handleGetSystemInfo)
	s.bridge.Register(bridge.CmdOpenFileDialog, s.handleOpenFileDialog)
	s.bridge.Register(bridge.CmdSaveFileDialog, s.handleSaveFileDialog)
	s.bridge.Register(bridge.CmdCheckForUpdates, s.handleCheckForUpdates)
	s.bridge.Register(bridge.CmdDownloadUpdate, s.handleDownloadUpdate)
	s.bridge.Register(bridge.CmdInstallUpdate, s.handleInstallUpdate)
}

func (s *Supervisor) handleGetAppDataPath(args json.RawMessage) (interface{}, error) {
	path, err := platform.AppDataDir()
	if err != nil {
		return nil, err
	}
	return bridge.AppDataPath{Path: path}, nil
}

func (s *Supervisor) handleGetSystemInfo(args json.RawMessage) (interface{}, error) {
	info := bridge.SystemInfo{
		Platform:   runtime.GOOS,
		Arch:       runtime.GOARCH,
		AppVersion: update.Version,
		RuntimeVersions: map[string]string{
			"go": runtime.Version(),
		},
		CPUCores: runtime.NumCPU(),
	}

	if cpus, err := cpu.Info(); err == nil && len(cpus) > 0 {
		info.CPUInfo = cpus[0].ModelName
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		info.TotalMemory = vm.Total
		info.FreeMemory = vm.Available
	}

	return info, nil
}

func (s *Supervisor) handleOpenFileDialog(args json.RawMessage) (interface{}, error) {
	var opts platform.FileDialogOptions
	if err := bridge.DecodeArgs(args, &opts); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), dialogTimeout)
	defer cancel()

	paths, err := s.dialogs.OpenFile(ctx, opts)
	if err != nil {
		return nil, err
	}
	if paths == nil {
		// Cancelled dialogs resolve to an empty list, not an error.
		paths = []string{}
	}
	return openDialogResult{Paths: paths}, nil
}

func (s *Supervisor) handleSaveFileDialog(args json.RawMessage) (interface{}, error) {
	var opts platform.FileDialogOptions
	if err := bridge.DecodeArgs(args, &opts); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), dialogTimeout)
	defer cancel()

	path, err := s.dialogs.SaveFile(ctx, opts)
	if err != nil {
		return nil, err
	}
	return saveDialogResult{Path: path}, nil
}

func (s *Supervisor) handleCheckForUpdates(args json.RawMessage) (interface{}, error) {
	initiated, reason := s.updates.CheckForUpdates()
	return bridge.CheckResult{Initiated: initiated, Reason: reason}, nil
}

func (s *Supervisor) handleDownloadUpdate(args json.RawMessage) (interface{}, error) {
	if err := s.updates.DownloadUpdate(); err != nil {
		return nil, err
	}
	return s.updates.State(), nil
}

func (s *Supervisor) handleInstallUpdate(args json.RawMessage) (interface{}, error) {
	if err := s.updates.InstallUpdate(); err != nil {
		return nil, err
	}
	return s.updates.State(), nil
}
