package materials

import "render-core/engine"

// MaxSimultaneousLights bounds the light includes of the default shader.
const MaxSimultaneousLights = 4

// RegisterBuiltinShaders stores the default and color shaders and their
// includes, so they compile without a shader repository on disk.
func RegisterBuiltinShaders(store *engine.ShaderStore) {
	store.SetShader("defaultVertexShader", defaultVertexShader)
	store.SetShader("defaultFragmentShader", defaultFragmentShader)
	store.SetShader("colorVertexShader", colorVertexShader)
	store.SetShader("colorFragmentShader", colorFragmentShader)

	store.SetInclude("lightingFunctions", lightingFunctions)
	store.SetInclude("lightFragmentDeclaration", lightFragmentDeclaration)
	store.SetInclude("lightFragment", lightFragment)
	store.SetInclude("fogFragmentDeclaration", fogFragmentDeclaration)
	store.SetInclude("fogFragment", fogFragment)
}

const defaultVertexShader = `
attribute vec3 position;
#ifdef NORMAL
attribute vec3 normal;
#endif
#ifdef UV1
attribute vec2 uv;
#endif
#ifdef VERTEXCOLOR
attribute vec4 color;
#endif

uniform mat4 world;
uniform mat4 viewProjection;

varying vec3 vPositionW;
#ifdef NORMAL
varying vec3 vNormalW;
#endif
#ifdef UV1
varying vec2 vUV;
#endif
#ifdef VERTEXCOLOR
varying vec4 vColor;
#endif

void main(void) {
    vec4 worldPos = world * vec4(position, 1.0);
    gl_Position = viewProjection * worldPos;
    vPositionW = worldPos.xyz;
#ifdef NORMAL
    vNormalW = normalize(vec3(world * vec4(normal, 0.0)));
#endif
#ifdef UV1
    vUV = uv;
#endif
#ifdef VERTEXCOLOR
    vColor = color;
#endif
}
`

const defaultFragmentShader = `
uniform vec4 vEyePosition;
uniform vec4 vDiffuseColor;
uniform vec4 vSpecularColor;
uniform vec3 vEmissiveColor;
uniform vec3 vAmbientColor;

varying vec3 vPositionW;
#ifdef NORMAL
varying vec3 vNormalW;
#endif
#ifdef UV1
varying vec2 vUV;
#endif
#ifdef VERTEXCOLOR
varying vec4 vColor;
#endif

#ifdef DIFFUSE
uniform sampler2D diffuseSampler;
uniform vec2 vDiffuseInfos;
#endif

#include<lightingFunctions>
#include<lightFragmentDeclaration>[0..maxSimultaneousLights]
#include<fogFragmentDeclaration>

void main(void) {
    vec3 viewDirectionW = normalize(vEyePosition.xyz - vPositionW);

    vec4 baseColor = vec4(1.0);
    vec3 diffuseColor = vDiffuseColor.rgb;
    float alpha = vDiffuseColor.a;
#ifdef DIFFUSE
    baseColor = texture2D(diffuseSampler, vUV);
    baseColor.rgb *= vDiffuseInfos.x;
#endif
#ifdef VERTEXCOLOR
    baseColor.rgb *= vColor.rgb;
#endif

#ifdef NORMAL
    vec3 normalW = normalize(vNormalW);
#else
    vec3 normalW = normalize(cross(dFdx(vPositionW), dFdy(vPositionW)));
#endif

    vec3 diffuseBase = vec3(0.0);
    vec3 specularBase = vec3(0.0);
    float glossiness = vSpecularColor.a;
    lightingInfo info;
#include<lightFragment>[0..maxSimultaneousLights]

    vec3 finalDiffuse = clamp(diffuseBase * diffuseColor + vEmissiveColor + vAmbientColor, 0.0, 1.0) * baseColor.rgb;
    vec3 finalSpecular = specularBase * vSpecularColor.rgb;
    vec4 color = vec4(finalDiffuse + finalSpecular, alpha * baseColor.a);
#include<fogFragment>(fogTarget,color)
    gl_FragColor = color;
}
`

// Blinn-Phong term per light. lightData.w is 0 for point lights, 1 for
// directional lights.
const lightingFunctions = `
struct lightingInfo {
    vec3 diffuse;
    vec3 specular;
};

lightingInfo computeLighting(vec3 viewDirectionW, vec3 vNormal, vec4 lightData, vec3 diffuseColor, vec3 specularColor, float range, float glossiness) {
    lightingInfo result;
    vec3 lightVectorW;
    float attenuation = 1.0;
    if (lightData.w == 0.0) {
        vec3 direction = lightData.xyz - vPositionW;
        attenuation = max(0.0, 1.0 - length(direction) / range);
        lightVectorW = normalize(direction);
    } else {
        lightVectorW = normalize(-lightData.xyz);
    }

    float ndl = max(0.0, dot(vNormal, lightVectorW));
    result.diffuse = ndl * diffuseColor * attenuation;

    vec3 angleW = normalize(viewDirectionW + lightVectorW);
    float specComp = pow(max(0.0, dot(vNormal, angleW)), max(1.0, glossiness));
    result.specular = specComp * specularColor * attenuation;
    return result;
}
`

const lightFragmentDeclaration = `
#ifdef LIGHT{X}
uniform vec4 vLightData{X};
uniform vec4 vLightDiffuse{X};
uniform vec3 vLightSpecular{X};
#endif
`

const lightFragment = `
#ifdef LIGHT{X}
    info = computeLighting(viewDirectionW, normalW, vLightData{X}, vLightDiffuse{X}.rgb, vLightSpecular{X}, vLightDiffuse{X}.a, glossiness);
    diffuseBase += info.diffuse;
    specularBase += info.specular;
#endif
`

const fogFragmentDeclaration = `
#ifdef FOG
#define FOGMODE_NONE 0.
#define FOGMODE_EXP 1.
#define FOGMODE_EXP2 2.
#define FOGMODE_LINEAR 3.

uniform vec4 vFogInfos;
uniform vec3 vFogColor;

float calcFogFactor() {
    float fogDistance = length(vEyePosition.xyz - vPositionW);
    float fogCoeff = 1.0;
    float fogStart = vFogInfos.y;
    float fogEnd = vFogInfos.z;
    float fogDensity = vFogInfos.w;

    if (FOGMODE_LINEAR == vFogInfos.x) {
        fogCoeff = (fogEnd - fogDistance) / (fogEnd - fogStart);
    } else if (FOGMODE_EXP == vFogInfos.x) {
        fogCoeff = 1.0 / pow(2.71828, fogDistance * fogDensity);
    } else if (FOGMODE_EXP2 == vFogInfos.x) {
        fogCoeff = 1.0 / pow(2.71828, fogDistance * fogDistance * fogDensity * fogDensity);
    }
    return clamp(fogCoeff, 0.0, 1.0);
}
#endif
`

const fogFragment = `
#ifdef FOG
    float fog = calcFogFactor();
    fogTarget.rgb = mix(vFogColor, fogTarget.rgb, fog);
#endif
`

const colorVertexShader = `
attribute vec3 position;
#ifdef VERTEXCOLOR
attribute vec4 color;
varying vec4 vColor;
#endif

uniform mat4 world;
uniform mat4 viewProjection;

void main(void) {
    gl_Position = viewProjection * world * vec4(position, 1.0);
#ifdef VERTEXCOLOR
    vColor = color;
#endif
}
`

const colorFragmentShader = `
#ifdef VERTEXCOLOR
varying vec4 vColor;
#else
uniform vec4 color;
#endif

void main(void) {
#ifdef VERTEXCOLOR
    gl_FragColor = vColor;
#else
    gl_FragColor = color;
#endif
}
`
