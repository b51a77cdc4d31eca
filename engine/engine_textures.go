package engine

func (e *ThinEngine) activateCurrentTexture() {
	if e.currentTextureChannel != e.activeChannel {
		e.driver.ActiveTexture(GL_TEXTURE0 + uint32(e.activeChannel))
		e.currentTextureChannel = e.activeChannel
	}
}

func (e *ThinEngine) bindSamplerUniformToChannel(sourceSlot, destination int) {
	u := e.boundUniforms[sourceSlot]
	if u == nil || u.currentState == destination {
		return
	}
	e.driver.Uniform1i(u.location, int32(destination))
	u.currentState = destination
}

// BindTextureDirectly binds texture to target on the active channel, calling the
// driver only when the channel holds something else or force is set. With
// forUpdate the texture's own channel is activated so its data can be
// written. It reports whether the texture was already bound.
func (e *ThinEngine) BindTextureDirectly(target uint32, texture *InternalTexture, forUpdate, force bool) bool {
	return e.bindTextureDirectly(target, texture, forUpdate, force)
}

func (e *ThinEngine) bindTextureDirectly(target uint32, texture *InternalTexture, forUpdate, force bool) bool {
	wasPreviouslyBound := false
	isTextureForRendering := texture != nil && texture.associatedChannel > -1
	if forUpdate && isTextureForRendering {
		e.activeChannel = texture.associatedChannel
	}

	current := e.boundTexturesCache[e.activeChannel]
	if current != texture || force {
		e.activateCurrentTexture()
		var handle uint32
		if texture != nil {
			handle = texture.handle
		}
		e.driver.BindTexture(target, handle)
		e.boundTexturesCache[e.activeChannel] = texture
		if texture != nil {
			texture.associatedChannel = e.activeChannel
		}
	} else if forUpdate {
		wasPreviouslyBound = true
		e.activateCurrentTexture()
	}

	if isTextureForRendering && !forUpdate {
		e.bindSamplerUniformToChannel(texture.associatedChannel, e.activeChannel)
	}
	return wasPreviouslyBound
}

// BindTexture binds texture on channel for sampling.
func (e *ThinEngine) BindTexture(channel int, texture *InternalTexture) {
	if channel < 0 || channel >= e.maxTextures {
		return
	}
	if texture != nil {
		texture.associatedChannel = channel
	}
	e.activeChannel = channel
	target := GL_TEXTURE_2D
	if texture != nil {
		target = texture.target()
	}
	e.bindTextureDirectly(target, texture, false, false)
}

// SetTexture binds texture to channel and routes the sampler uniform to it. A
// texture that is not ready yet is replaced by a 1x1 placeholder.
func (e *ThinEngine) SetTexture(channel int, u *Uniform, texture *InternalTexture) bool {
	if channel < 0 || channel >= e.maxTextures {
		return false
	}
	if u != nil {
		e.boundUniforms[channel] = u
	}

	if texture == nil {
		if e.boundTexturesCache[channel] != nil {
			e.activeChannel = channel
			e.bindTextureDirectly(GL_TEXTURE_2D, nil, false, false)
			e.bindTextureDirectly(GL_TEXTURE_CUBE_MAP, nil, false, false)
		}
		return false
	}

	if !texture.isReady {
		texture = e.EmptyTexture()
	}
	e.activeChannel = channel
	e.bindSamplerUniformToChannel(texture.associatedChannel, channel)
	e.bindTextureDirectly(texture.target(), texture, false, false)
	return true
}

// EmptyTexture returns a shared 1x1 transparent texture.
func (e *ThinEngine) EmptyTexture() *InternalTexture {
	if e.emptyTexture == nil {
		t, _ := e.CreateRawTexture([]byte{0, 0, 0, 0}, 1, 1, false, TextureNearestSamplingMode)
		e.emptyTexture = t
	}
	return e.emptyTexture
}

// UnbindAllTextures clears every channel for 2D and cube targets.
func (e *ThinEngine) UnbindAllTextures() {
	for channel := 0; channel < e.maxTextures; channel++ {
		e.activeChannel = channel
		e.bindTextureDirectly(GL_TEXTURE_2D, nil, false, false)
		e.bindTextureDirectly(GL_TEXTURE_CUBE_MAP, nil, false, false)
	}
}

// ResetTextureCache forgets bound textures without touching the driver.
func (e *ThinEngine) ResetTextureCache() {
	for i := range e.boundTexturesCache {
		e.boundTexturesCache[i] = nil
	}
	e.currentTextureChannel = -1
}

// BoundTexture returns the cached texture on channel.
func (e *ThinEngine) BoundTexture(channel int) *InternalTexture {
	if channel < 0 || channel >= len(e.boundTexturesCache) {
		return nil
	}
	return e.boundTexturesCache[channel]
}
