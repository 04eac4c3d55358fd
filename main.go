/*
main.go

Copyright © 2025 Code Monkey Cybersecurity
Contact: git@cybermonkey.net.au

This file is part of Vulcan.

This software is dual-licensed under the Do No Harm License
and the GNU Affero General Public License v3 (AGPL-3.0-or-later).
You may use, modify, and distribute it under the terms of either license.

See LICENSE.agpl and LICENSE.dnh for full details.
*/
package main

import (
	"github.com/CodeMonkeyCybersecurity/vulcan/cmd"
	"github.com/CodeMonkeyCybersecurity/vulcan/pkg/logger"
	"github.com/CodeMonkeyCybersecurity/vulcan/pkg/telemetry"
	"go.uber.org/zap"
)

func main() {
	logger.Initialize()

	if err := telemetry.Init("vulcan"); err != nil {
		logger.L().Warn("Telemetry disabled", zap.Error(err))
	}

	cmd.Execute()
}
