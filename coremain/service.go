/*
 * Copyright (C) 2020-2026, IrineSistiana
 *
 * This file is part of nscache.
 *
 * nscache is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * nscache is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with this program.  If not, see <https://www.gnu.org/licenses/>.
 */

package coremain

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/kardianos/service"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fromafrica/nscache/mlog"
)

var svcCfg = &service.Config{
	Name:        "nscache",
	DisplayName: "nscache",
	Description: "A cache-aside record lookup service.",
}

var svc service.Service

// serverService runs the server under a service manager.
type serverService struct {
	f *serverFlags

	m      sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func (ss *serverService) Start(s service.Service) error {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	ss.m.Lock()
	ss.cancel, ss.done = cancel, done
	ss.m.Unlock()

	go func() {
		defer close(done)
		if err := StartServer(ctx, ss.f); err != nil {
			mlog.L().Error("server exited", zap.Error(err))
			os.Exit(1)
		}
	}()
	return nil
}

func (ss *serverService) Stop(s service.Service) error {
	ss.m.Lock()
	cancel, done := ss.cancel, ss.done
	ss.m.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	<-done
	return nil
}

func initService(_ *cobra.Command, _ []string) error {
	s, err := service.New(&serverService{}, svcCfg)
	if err != nil {
		return fmt.Errorf("cannot init service, %w", err)
	}
	svc = s
	return nil
}

func newSvcInstallCmd() *cobra.Command {
	sf := new(serverFlags)
	c := &cobra.Command{
		Use:   "install [-d working_dir] [-c config_file]",
		Short: "Install nscache as a system service.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(sf.dir) == 0 {
				wd, err := os.Getwd()
				if err != nil {
					return fmt.Errorf("failed to get current working directory, %w", err)
				}
				sf.dir = wd
			}
			absDir, err := filepath.Abs(sf.dir)
			if err != nil {
				return fmt.Errorf("failed to get abs path of working dir, %w", err)
			}

			svcCfg.Arguments = []string{"start", "--as-service", "-d", absDir}
			if len(sf.c) > 0 {
				absConfig, err := filepath.Abs(sf.c)
				if err != nil {
					return fmt.Errorf("failed to get abs path of config file, %w", err)
				}
				svcCfg.Arguments = append(svcCfg.Arguments, "-c", absConfig)
			}

			s, err := service.New(&serverService{f: sf}, svcCfg)
			if err != nil {
				return fmt.Errorf("failed to init service, %w", err)
			}
			return s.Install()
		},
		SilenceUsage: true,
	}
	c.Flags().StringVarP(&sf.dir, "dir", "d", "", "working dir")
	c.Flags().StringVarP(&sf.c, "config", "c", "", "config file")
	return c
}

func newSvcUninstallCmd() *cobra.Command {
	return &cobra.Command{
		Use:          "uninstall",
		Short:        "Uninstall nscache from system service.",
		RunE:         func(cmd *cobra.Command, args []string) error { return svc.Uninstall() },
		SilenceUsage: true,
	}
}

func newSvcStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start nscache system service.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := svc.Start(); err != nil {
				return err
			}
			return printStatus(cmd)
		},
		SilenceUsage: true,
	}
}

func newSvcStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:          "stop",
		Short:        "Stop nscache system service.",
		RunE:         func(cmd *cobra.Command, args []string) error { return svc.Stop() },
		SilenceUsage: true,
	}
}

func newSvcRestartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restart",
		Short: "Restart nscache system service.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := svc.Restart(); err != nil {
				return err
			}
			return printStatus(cmd)
		},
		SilenceUsage: true,
	}
}

func newSvcStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:          "status",
		Short:        "Status of nscache system service.",
		RunE:         func(cmd *cobra.Command, args []string) error { return printStatus(cmd) },
		SilenceUsage: true,
	}
}

func printStatus(cmd *cobra.Command) error {
	s, err := svc.Status()
	if err != nil {
		if errors.Is(err, service.ErrNotInstalled) {
			cmd.Println("not installed")
			return nil
		}
		return fmt.Errorf("cannot get service status, %w", err)
	}
	switch s {
	case service.StatusRunning:
		cmd.Println("running")
	case service.StatusStopped:
		cmd.Println("stopped")
	default:
		cmd.Println("unknown")
	}
	return nil
}
