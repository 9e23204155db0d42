// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2024-2026 The payscript authors

package store

import _ "modernc.org/sqlite"

const driverName = "sqlite"
