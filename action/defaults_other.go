// Copyright 2026 The RRG Authors
// SPDX-License-Identifier: Apache-2.0

//go:build !unix

package action

func registerPlatform(*Registry) {}
