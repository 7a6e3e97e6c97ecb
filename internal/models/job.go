// Copyright (C) 2025 Austin Beattie
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package models

import "time"

// Job is one queued unit of asynchronous work (spec §3.1, §5). The
// payload is an opaque, queue-specific JSON document; internal/jobs owns
// the tagged union of concrete payload shapes.
type Job struct {
	ID          int64
	Queue       string
	Payload     []byte
	Attempts    int
	MaxAttempts int
	CreatedAt   time.Time
	ScheduledAt time.Time
}
