// Package pkg, projede paylaşılan utility'leri barındırır.
// Bu dosya domain-level error tanımlarını içerir.
//
// Go'da error'lar basit değerlerdir (string taşıyan struct'lar).
// errors.New() ile sabit error değişkenleri tanımlarız.
// Böylece error karşılaştırması string yerine referans ile yapılır:
//
//	if errors.Is(err, pkg.ErrUnauthenticated) { ... }
//
// Bu, typo'ya açık string karşılaştırmasından çok daha güvenlidir.
package pkg

import "errors"

// Domain-level error'lar.
// Service katmanı bunları döner; gesture entry point'leri hiçbirini
// caller'a sızdırmaz — her hata iyi tanımlı bir state geçişiyle sonlanır (bkz. call_service.go).
var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrBadRequest      = errors.New("bad request")
	ErrNotFound        = errors.New("not found")
	ErrInvalidState    = errors.New("invalid state transition")
	ErrTransport       = errors.New("transport failure")
	ErrStaleCompletion = errors.New("stale completion")
	ErrInternal        = errors.New("internal error")
)
